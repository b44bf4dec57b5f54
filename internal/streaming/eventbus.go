package streaming

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"langpredict/internal/domain/models"
	"langpredict/pkg/logger"
)

// EventBus distributes events to local subscribers and, when connected, to
// NATS. Subscribers also receive the events other instances publish to NATS.
type EventBus struct {
	nats   *NATSPublisher
	origin string
	logger *logger.Logger

	mu          sync.RWMutex
	subscribers map[string]*subscriber
}

type subscriber struct {
	ch  chan *models.Event
	sub *Subscription
}

// NewEventBus creates a new event bus. nats may be nil.
func NewEventBus(nats *NATSPublisher, log *logger.Logger) *EventBus {
	return &EventBus{
		nats:        nats,
		origin:      uuid.NewString(),
		logger:      log.WithComponent("event-bus"),
		subscribers: make(map[string]*subscriber),
	}
}

// Origin identifies this bus in published events
func (eb *EventBus) Origin() string {
	return eb.origin
}

// Publish publishes an event to NATS and all local subscribers
func (eb *EventBus) Publish(ctx context.Context, event *models.Event) error {
	if event.Origin == "" {
		event.Origin = eb.origin
	}

	if eb.nats != nil && eb.nats.IsConnected() {
		if err := eb.nats.Publish(ctx, event); err != nil {
			eb.logger.Warn().Err(err).Msg("failed to publish to NATS, using local broadcast only")
		}
	}

	eb.broadcast(event)
	return nil
}

func (eb *EventBus) broadcast(event *models.Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	for id, s := range eb.subscribers {
		if !s.sub.Matches(event) {
			continue
		}
		select {
		case s.ch <- event:
		default:
			eb.logger.Debug().Str("subscriber", id).Msg("subscriber channel full, dropping event")
		}
	}
}

// Subscribe creates a new subscription and returns a channel for events
func (eb *EventBus) Subscribe(ctx context.Context, sub *Subscription) (<-chan *models.Event, func()) {
	id := uuid.NewString()
	ch := make(chan *models.Event, 100)

	eb.mu.Lock()
	eb.subscribers[id] = &subscriber{ch: ch, sub: sub}
	eb.mu.Unlock()

	eb.logger.Debug().Str("subscriber_id", id).Msg("new subscriber")

	ctx, cancel := context.WithCancel(ctx)
	unsubscribe := func() {
		cancel()
		eb.mu.Lock()
		defer eb.mu.Unlock()
		if _, ok := eb.subscribers[id]; ok {
			close(ch)
			delete(eb.subscribers, id)
			eb.logger.Debug().Str("subscriber_id", id).Msg("subscriber removed")
		}
	}

	// Forward events published by other instances
	if eb.nats != nil && eb.nats.IsConnected() {
		natsCh, err := eb.nats.Subscribe(ctx, sub)
		if err != nil {
			eb.logger.Warn().Err(err).Msg("failed to subscribe to NATS, local events only")
		} else {
			go eb.forward(ctx, id, natsCh)
		}
	}

	return ch, unsubscribe
}

func (eb *EventBus) forward(ctx context.Context, id string, natsCh <-chan *models.Event) {
	for event := range natsCh {
		if event.Origin == eb.origin {
			continue
		}
		eb.mu.RLock()
		s, ok := eb.subscribers[id]
		if ok {
			select {
			case s.ch <- event:
			case <-ctx.Done():
			default:
			}
		}
		eb.mu.RUnlock()
		if !ok {
			return
		}
	}
}

// SubscriberCount returns the number of active subscribers
func (eb *EventBus) SubscriberCount() int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	return len(eb.subscribers)
}

// Close closes the event bus
func (eb *EventBus) Close() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	for id, s := range eb.subscribers {
		close(s.ch)
		delete(eb.subscribers, id)
	}

	if eb.nats != nil {
		eb.nats.Close()
	}
}
