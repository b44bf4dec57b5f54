package streaming

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"langpredict/internal/config"
	"langpredict/internal/domain/models"
	"langpredict/pkg/logger"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// NATSPublisher handles publishing events to NATS JetStream
type NATSPublisher struct {
	conn   *nats.Conn
	js     jetstream.JetStream
	stream jetstream.Stream
	config config.NATSConfig
	logger *logger.Logger

	mu        sync.RWMutex
	connected bool
}

// NewNATSPublisher creates a new NATS publisher
func NewNATSPublisher(ctx context.Context, cfg config.NATSConfig, log *logger.Logger) (*NATSPublisher, error) {
	log = log.WithComponent("nats")

	cfg = withSubjectDefaults(cfg)

	log.Info().Str("url", cfg.URL).Str("stream", cfg.StreamName).Msg("connecting to NATS")

	conn, err := nats.Connect(cfg.URL,
		nats.Name("langpredict"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Info().Msg("NATS reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			log.Info().Msg("NATS connection closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	stream, err := js.CreateOrUpdateStream(ctx, streamConfig(cfg))
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create stream: %w", err)
	}

	log.Info().Str("stream", stream.CachedInfo().Config.Name).Msg("NATS stream ready")

	return &NATSPublisher{
		conn:      conn,
		js:        js,
		stream:    stream,
		config:    cfg,
		logger:    log,
		connected: true,
	}, nil
}

func withSubjectDefaults(cfg config.NATSConfig) config.NATSConfig {
	if cfg.URL == "" {
		cfg.URL = nats.DefaultURL
	}
	if cfg.StreamName == "" {
		cfg.StreamName = "LANGPREDICT"
	}
	if cfg.Subjects.Detection == "" {
		cfg.Subjects.Detection = "langpredict.detection"
	}
	if cfg.Subjects.ProfilesLoaded == "" {
		cfg.Subjects.ProfilesLoaded = "langpredict.profiles.loaded"
	}
	return cfg
}

func streamConfig(cfg config.NATSConfig) jetstream.StreamConfig {
	return jetstream.StreamConfig{
		Name:        cfg.StreamName,
		Description: "langpredict detection events",
		Subjects:    []string{cfg.Subjects.Detection + ".>", cfg.Subjects.ProfilesLoaded},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      24 * time.Hour,
		MaxMsgs:     100000,
		MaxBytes:    100 * 1024 * 1024,
		Discard:     jetstream.DiscardOld,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
	}
}

// Close closes the NATS connection
func (p *NATSPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn != nil {
		p.conn.Close()
		p.connected = false
	}
}

// IsConnected returns whether NATS is connected
func (p *NATSPublisher) IsConnected() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.connected && p.conn.IsConnected()
}

// Publish publishes an event to its subject
func (p *NATSPublisher) Publish(ctx context.Context, event *models.Event) error {
	if !p.IsConnected() {
		return fmt.Errorf("NATS not connected")
	}

	subject := subjectFor(p.config.Subjects, event)

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if _, err := p.js.Publish(ctx, subject, data, jetstream.WithMsgID(event.ID.String())); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Debug().
		Str("subject", subject).
		Str("event_type", string(event.Type)).
		Str("language", event.Language).
		Msg("published event")

	return nil
}

// subjectFor returns the NATS subject for an event.
// Detections go to <detection>.<language>, e.g. langpredict.detection.fr.
func subjectFor(subjects config.NATSSubjectsConfig, event *models.Event) string {
	if event.Type == models.EventTypeProfilesLoaded {
		return subjects.ProfilesLoaded
	}
	lang := event.Language
	if lang == "" {
		lang = "unknown"
	}
	// NATS tokens cannot contain dots or wildcards
	lang = strings.NewReplacer(".", "_", "*", "_", ">", "_", " ", "_").Replace(lang)
	return subjects.Detection + "." + lang
}

// Subscribe creates an ephemeral consumer over the stream and delivers the
// events matching sub until ctx is done.
func (p *NATSPublisher) Subscribe(ctx context.Context, sub *Subscription) (<-chan *models.Event, error) {
	if !p.IsConnected() {
		return nil, fmt.Errorf("NATS not connected")
	}

	consumer, err := p.stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		DeliverPolicy: jetstream.DeliverNewPolicy,
		AckPolicy:     jetstream.AckExplicitPolicy,
		MaxDeliver:    3,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}

	eventCh := make(chan *models.Event, 100)

	go func() {
		defer close(eventCh)

		msgs, err := consumer.Messages()
		if err != nil {
			p.logger.Error().Err(err).Msg("failed to get messages iterator")
			return
		}
		defer msgs.Stop()

		go func() {
			<-ctx.Done()
			msgs.Stop()
		}()

		for {
			msg, err := msgs.Next()
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, jetstream.ErrMsgIteratorClosed) {
					return
				}
				p.logger.Warn().Err(err).Msg("error getting next message")
				continue
			}

			var event models.Event
			if err := json.Unmarshal(msg.Data(), &event); err != nil {
				p.logger.Warn().Err(err).Msg("failed to unmarshal event")
				_ = msg.Term()
				continue
			}
			_ = msg.Ack()

			if !sub.Matches(&event) {
				continue
			}
			select {
			case eventCh <- &event:
			case <-ctx.Done():
				return
			}
		}
	}()

	return eventCh, nil
}
