package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"langpredict/internal/config"
	"langpredict/internal/detection"
	"langpredict/internal/detection/detector"
	"langpredict/internal/domain/models"
	"langpredict/internal/metrics"
	"langpredict/pkg/logger"
)

// ReliableProbability is the top-language probability from which a result is
// flagged reliable.
const ReliableProbability = 0.9

// ResultCache stores finished detections by request key
type ResultCache interface {
	Get(ctx context.Context, key string) (*models.DetectionResult, bool)
	Set(ctx context.Context, key string, result *models.DetectionResult)
}

// DetectionService runs detections against the registry's active profile set
type DetectionService struct {
	registry  *ProfileRegistry
	cfg       config.DetectorConfig
	cache     ResultCache
	publisher EventPublisher
	metrics   *metrics.Detection
	logger    *logger.Logger
}

// NewDetectionService creates a detection service. cache and publisher may be
// nil.
func NewDetectionService(
	registry *ProfileRegistry,
	cfg config.DetectorConfig,
	cache ResultCache,
	publisher EventPublisher,
	m *metrics.Detection,
	log *logger.Logger,
) *DetectionService {
	if m == nil {
		m = metrics.NewDetection(nil)
	}
	if cfg.MaxTextLength <= 0 {
		cfg.MaxTextLength = detector.DefaultMaxTextLength
	}
	if cfg.BatchWorkers <= 0 {
		cfg.BatchWorkers = 1
	}
	return &DetectionService{
		registry:  registry,
		cfg:       cfg,
		cache:     cache,
		publisher: publisher,
		metrics:   m,
		logger:    log.WithComponent("detection-service"),
	}
}

// Languages returns the languages of the active profile set
func (s *DetectionService) Languages() []string {
	return s.registry.Languages()
}

// Detect identifies the language of req.Text
func (s *DetectionService) Detect(ctx context.Context, req *models.DetectionRequest) (*models.DetectionResult, error) {
	start := time.Now()
	result, err := s.detect(ctx, req)
	if err != nil {
		s.metrics.ObserveError(detection.KindOf(err).String())
		return nil, err
	}
	elapsed := time.Since(start)
	result.DurationMS = float64(elapsed.Microseconds()) / 1000
	s.metrics.ObserveDetection(result.Language, elapsed)

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, models.NewDetectionEvent(result)); err != nil {
			logger.FromContext(ctx, s.logger).WithLanguage(result.Language).
				Warn().Err(err).Msg("failed to publish detection event")
		}
	}
	return result, nil
}

func (s *DetectionService) detect(ctx context.Context, req *models.DetectionRequest) (*models.DetectionResult, error) {
	set := s.registry.Current()
	if set == nil {
		return nil, errNotLoaded()
	}

	alpha := s.cfg.Alpha
	if req.Alpha != nil {
		alpha = *req.Alpha
	}
	priors := s.cfg.Priors
	if len(req.Priors) > 0 {
		priors = req.Priors
	}
	seed, seeded := set.Seed()
	if s.cfg.Seed != nil {
		seed, seeded = *s.cfg.Seed, true
	}
	if req.Seed != nil {
		seed, seeded = *req.Seed, true
	}

	// Unseeded runs are not reproducible, so only seeded ones are cached.
	var key string
	if seeded && s.cache != nil && !req.NoCache {
		key = cacheKey(req.Text, alpha, priors, seed, s.cfg.MaxTextLength, set.Fingerprint())
		if cached, ok := s.cache.Get(ctx, key); ok {
			s.metrics.ObserveCache(true)
			// The scores are reused; the result still identifies this request.
			hit := *cached
			hit.ID = uuid.New()
			hit.DetectedAt = time.Now().UTC()
			hit.Cached = true
			return &hit, nil
		}
		s.metrics.ObserveCache(false)
	}

	opts := []detector.Option{
		detector.WithAlpha(alpha),
		detector.WithMaxTextLength(s.cfg.MaxTextLength),
		detector.WithVerbose(s.cfg.Verbose),
		detector.WithLogger(logger.FromContext(ctx, s.logger)),
	}
	if len(priors) > 0 {
		opts = append(opts, detector.WithPrior(priors))
	}
	if seeded {
		opts = append(opts, detector.WithSeed(seed))
	}

	d, err := detector.New(set, opts...)
	if err != nil {
		return nil, err
	}
	if err := d.Append(req.Text); err != nil {
		return nil, err
	}
	probs, err := d.Probabilities()
	if err != nil {
		return nil, err
	}
	lang, err := d.Detect()
	if err != nil {
		return nil, err
	}

	result := &models.DetectionResult{
		ID:            uuid.New(),
		Language:      lang,
		Probabilities: make([]models.LanguageProbability, len(probs)),
		TextLength:    min(utf8.RuneCountInString(req.Text), s.cfg.MaxTextLength),
		ProfileSet:    set.Fingerprint(),
		DetectedAt:    time.Now().UTC(),
	}
	for i, p := range probs {
		result.Probabilities[i] = models.LanguageProbability{Language: p.Lang, Probability: p.Prob}
	}
	result.Reliable = len(probs) > 0 && probs[0].Prob >= ReliableProbability

	if key != "" {
		s.cache.Set(ctx, key, result)
	}
	return result, nil
}

// DetectBatch runs every request of the batch. A failing item is reported in
// its slot and does not fail the batch; only an oversized batch or a cancelled
// context does.
func (s *DetectionService) DetectBatch(ctx context.Context, reqs []models.DetectionRequest) (*models.BatchDetectionResponse, error) {
	if s.cfg.MaxBatchSize > 0 && len(reqs) > s.cfg.MaxBatchSize {
		return nil, detection.ConfigError("batch of %d items exceeds the limit of %d", len(reqs), s.cfg.MaxBatchSize)
	}

	resp := &models.BatchDetectionResponse{
		BatchID: uuid.New(),
		Items:   make([]models.BatchDetectionItem, len(reqs)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.BatchWorkers)
	for i := range reqs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			item := models.BatchDetectionItem{Index: i}
			result, err := s.Detect(gctx, &reqs[i])
			if err != nil {
				item.Error = err.Error()
				item.Kind = detection.KindOf(err).String()
			} else {
				item.Result = result
			}
			resp.Items[i] = item
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, item := range resp.Items {
		if item.Result != nil {
			resp.Succeeded++
		} else {
			resp.Failed++
		}
	}

	logger.FromContext(ctx, s.logger).Debug().
		Str("batch_id", resp.BatchID.String()).
		Int("items", len(reqs)).
		Int("failed", resp.Failed).
		Msg("batch detection completed")
	return resp, nil
}

// cacheKey identifies a deterministic detection. Priors are hashed in key order
// so equal maps give equal keys.
func cacheKey(text string, alpha float64, priors map[string]float64, seed int64, maxLen int, fingerprint string) string {
	h := sha256.New()
	write := func(s string) {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}
	write(fingerprint)
	write(strconv.FormatFloat(alpha, 'g', -1, 64))
	write(strconv.FormatInt(seed, 10))
	write(strconv.Itoa(maxLen))
	langs := make([]string, 0, len(priors))
	for lang := range priors {
		langs = append(langs, lang)
	}
	slices.Sort(langs)
	for _, lang := range langs {
		write(lang)
		write(strconv.FormatFloat(priors[lang], 'g', -1, 64))
	}
	write(text)
	return hex.EncodeToString(h.Sum(nil))
}
