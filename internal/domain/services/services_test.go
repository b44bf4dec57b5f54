package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"langpredict/internal/config"
	"langpredict/internal/detection"
	"langpredict/internal/detection/detectiontest"
	"langpredict/internal/detection/profile"
	"langpredict/internal/domain/models"
	"langpredict/pkg/logger"
)

const (
	englishText = "The quick brown fox jumps over the lazy dog"
	frenchText  = "Le renard brun rapide saute par-dessus le chien paresseux"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*models.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e *models.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []models.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []models.EventType
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type mapCache struct {
	mu      sync.Mutex
	results map[string]models.DetectionResult
}

func (c *mapCache) Get(_ context.Context, key string) (*models.DetectionResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.results[key]
	if !ok {
		return nil, false
	}
	return &r, true
}

func (c *mapCache) Set(_ context.Context, key string, r *models.DetectionResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.results == nil {
		c.results = make(map[string]models.DetectionResult)
	}
	c.results[key] = *r
}

type failingSource struct{}

func (failingSource) Profiles(context.Context) ([]*profile.Profile, error) {
	return nil, detection.WrapIO(errors.New("disk on fire"), "failed to read profiles")
}

func loadedRegistry(t *testing.T) *ProfileRegistry {
	t.Helper()
	reg := NewProfileRegistry(profile.Static(detectiontest.Profiles()), "test", nil, logger.NewNop(), profile.WithSeed(1))
	_, err := reg.Reload(context.Background())
	require.NoError(t, err)
	return reg
}

func newService(t *testing.T, cfg config.DetectorConfig, cache ResultCache, pub EventPublisher) *DetectionService {
	t.Helper()
	if cfg.Alpha == 0 {
		cfg.Alpha = 0.5
	}
	return NewDetectionService(loadedRegistry(t), cfg, cache, pub, nil, logger.NewNop())
}

func TestProfileRegistry(t *testing.T) {
	pub := &recordingPublisher{}
	reg := NewProfileRegistry(profile.Static(detectiontest.Profiles()), "static", nil, logger.NewNop())
	reg.SetPublisher(pub)

	assert.False(t, reg.Ready())
	assert.Nil(t, reg.Current())
	_, err := reg.Info()
	assert.ErrorIs(t, err, detection.ErrConfiguration)

	info, err := reg.Reload(context.Background())
	require.NoError(t, err)
	assert.True(t, reg.Ready())
	assert.Equal(t, []string{"en", "fr", "ja"}, info.Languages)
	assert.Equal(t, "static", info.Source)
	assert.False(t, info.Seeded)
	assert.Equal(t, reg.Current().Fingerprint(), info.Fingerprint)
	assert.Equal(t, []models.EventType{models.EventTypeProfilesLoaded}, pub.types())

	ja, ok := reg.Profile("ja")
	require.True(t, ok)
	assert.Equal(t, 2, ja.Slot)
	assert.Positive(t, ja.Unigrams)
	_, ok = reg.Profile("de")
	assert.False(t, ok)
}

func TestProfileRegistryKeepsSetOnFailedReload(t *testing.T) {
	reg := loadedRegistry(t)
	before := reg.Current()

	reg.source = failingSource{}
	_, err := reg.Reload(context.Background())
	assert.ErrorIs(t, err, detection.ErrIO)
	assert.Same(t, before, reg.Current())
}

func TestDetect(t *testing.T) {
	pub := &recordingPublisher{}
	svc := newService(t, config.DetectorConfig{}, nil, pub)

	for _, tc := range []struct{ text, want string }{
		{englishText, "en"},
		{frenchText, "fr"},
		{"日本語を勉強するのは楽しいです", "ja"},
	} {
		result, err := svc.Detect(context.Background(), &models.DetectionRequest{Text: tc.text})
		require.NoError(t, err)
		assert.Equal(t, tc.want, result.Language)
		require.NotEmpty(t, result.Probabilities)
		assert.Equal(t, tc.want, result.Probabilities[0].Language)
		assert.Equal(t, svc.registry.Current().Fingerprint(), result.ProfileSet)
		assert.False(t, result.Cached)
	}
	assert.Len(t, pub.types(), 3)
	assert.Equal(t, []string{"en", "fr", "ja"}, svc.Languages())
}

func TestDetectErrors(t *testing.T) {
	svc := newService(t, config.DetectorConfig{}, nil, nil)
	ctx := context.Background()

	_, err := svc.Detect(ctx, &models.DetectionRequest{Text: "12345 !!!"})
	assert.ErrorIs(t, err, detection.ErrNoFeatures)

	negative := -1.0
	_, err = svc.Detect(ctx, &models.DetectionRequest{Text: englishText, Alpha: &negative})
	assert.ErrorIs(t, err, detection.ErrConfiguration)

	_, err = svc.Detect(ctx, &models.DetectionRequest{Text: englishText, Priors: map[string]float64{"de": 1}})
	assert.ErrorIs(t, err, detection.ErrConfiguration)

	empty := NewDetectionService(
		NewProfileRegistry(profile.Static(nil), "none", nil, logger.NewNop()),
		config.DetectorConfig{Alpha: 0.5}, nil, nil, nil, logger.NewNop(),
	)
	_, err = empty.Detect(ctx, &models.DetectionRequest{Text: englishText})
	assert.ErrorIs(t, err, detection.ErrConfiguration)
}

func TestDetectCachesSeededResults(t *testing.T) {
	cache := &mapCache{}
	svc := newService(t, config.DetectorConfig{}, cache, nil)
	ctx := context.Background()

	first, err := svc.Detect(ctx, &models.DetectionRequest{Text: frenchText})
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Len(t, cache.results, 1)

	second, err := svc.Detect(ctx, &models.DetectionRequest{Text: frenchText})
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.NotEqual(t, first.ID, second.ID, "every request gets its own result id")
	assert.Equal(t, first.Probabilities, second.Probabilities)
	assert.Equal(t, first.ProfileSet, second.ProfileSet)
	assert.False(t, first.Cached)

	again, err := svc.Detect(ctx, &models.DetectionRequest{Text: frenchText})
	require.NoError(t, err)
	assert.NotEqual(t, second.ID, again.ID)

	// a different alpha is a different key
	alpha := 0.7
	third, err := svc.Detect(ctx, &models.DetectionRequest{Text: frenchText, Alpha: &alpha})
	require.NoError(t, err)
	assert.False(t, third.Cached)
	assert.Len(t, cache.results, 2)

	_, err = svc.Detect(ctx, &models.DetectionRequest{Text: frenchText, NoCache: true})
	require.NoError(t, err)
	assert.Len(t, cache.results, 2)
}

func TestDetectSkipsCacheWithoutSeed(t *testing.T) {
	cache := &mapCache{}
	reg := NewProfileRegistry(profile.Static(detectiontest.Profiles()), "test", nil, logger.NewNop())
	_, err := reg.Reload(context.Background())
	require.NoError(t, err)
	svc := NewDetectionService(reg, config.DetectorConfig{Alpha: 0.5}, cache, nil, nil, logger.NewNop())

	_, err = svc.Detect(context.Background(), &models.DetectionRequest{Text: englishText})
	require.NoError(t, err)
	assert.Empty(t, cache.results)

	seed := int64(42)
	_, err = svc.Detect(context.Background(), &models.DetectionRequest{Text: englishText, Seed: &seed})
	require.NoError(t, err)
	assert.Len(t, cache.results, 1)
}

func TestCacheKey(t *testing.T) {
	base := cacheKey("text", 0.5, map[string]float64{"en": 1, "fr": 2}, 1, 100, "fp")
	assert.Equal(t, base, cacheKey("text", 0.5, map[string]float64{"fr": 2, "en": 1}, 1, 100, "fp"))
	assert.NotEqual(t, base, cacheKey("text", 0.5, map[string]float64{"en": 1, "fr": 2}, 2, 100, "fp"))
	assert.NotEqual(t, base, cacheKey("text", 0.5, map[string]float64{"en": 1, "fr": 2}, 1, 100, "other"))
	assert.NotEqual(t, base, cacheKey("text", 0.5, nil, 1, 100, "fp"))
	assert.Len(t, base, 64)
}

func TestDetectBatch(t *testing.T) {
	svc := newService(t, config.DetectorConfig{BatchWorkers: 2, MaxBatchSize: 4}, nil, nil)

	resp, err := svc.DetectBatch(context.Background(), []models.DetectionRequest{
		{Text: englishText},
		{Text: "   "},
		{Text: frenchText},
	})
	require.NoError(t, err)
	require.Len(t, resp.Items, 3)
	assert.Equal(t, 2, resp.Succeeded)
	assert.Equal(t, 1, resp.Failed)

	for i, item := range resp.Items {
		assert.Equal(t, i, item.Index)
	}
	assert.Equal(t, "en", resp.Items[0].Result.Language)
	assert.Nil(t, resp.Items[1].Result)
	assert.Equal(t, "no_features", resp.Items[1].Kind)
	assert.NotEmpty(t, resp.Items[1].Error)
	assert.Equal(t, "fr", resp.Items[2].Result.Language)
}

func TestDetectBatchLimits(t *testing.T) {
	svc := newService(t, config.DetectorConfig{MaxBatchSize: 1}, nil, nil)

	_, err := svc.DetectBatch(context.Background(), make([]models.DetectionRequest, 2))
	assert.ErrorIs(t, err, detection.ErrConfiguration)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = svc.DetectBatch(ctx, []models.DetectionRequest{{Text: englishText}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReadSamples(t *testing.T) {
	input := "en\t" + englishText + "\n" +
		"no tab here\n" +
		"\tno language\n" +
		"fr\t" + frenchText + "\n"

	samples, err := ReadSamples(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []models.EvaluationSample{
		{Language: "en", Text: englishText},
		{Language: "fr", Text: frenchText},
	}, samples)
}

func TestEvaluate(t *testing.T) {
	svc := newService(t, config.DetectorConfig{}, nil, nil)
	ev := NewEvaluator(svc, false, logger.NewNop())

	report, err := ev.Evaluate(context.Background(), []models.EvaluationSample{
		{Language: "fr", Text: frenchText},
		{Language: "en", Text: englishText},
		{Language: "en", Text: "the weather in the north of the country"},
		{Language: "de", Text: englishText},
		{Language: "en", Text: "!!!"},
	})
	require.NoError(t, err)

	assert.Equal(t, 5, report.Total)
	assert.Equal(t, 3, report.Correct)
	assert.Equal(t, 1, report.Failed)
	assert.InDelta(t, 0.6, report.Accuracy, 1e-9)
	assert.False(t, report.BaselineUsed)

	require.Len(t, report.Languages, 3)
	de, en, fr := report.Languages[0], report.Languages[1], report.Languages[2]
	assert.Equal(t, "de", de.Language)
	assert.Equal(t, map[string]int{"en": 1}, de.Detected)
	assert.Zero(t, de.Accuracy)

	assert.Equal(t, "en", en.Language)
	assert.Equal(t, 3, en.Total)
	assert.Equal(t, 2, en.Correct)
	assert.Equal(t, map[string]int{"en": 2, "no_features": 1}, en.Detected)

	assert.Equal(t, "fr", fr.Language)
	assert.InDelta(t, 1.0, fr.Accuracy, 1e-9)
}

func TestEvaluateBaseline(t *testing.T) {
	svc := newService(t, config.DetectorConfig{}, nil, nil)
	ev := NewEvaluator(svc, true, logger.NewNop())

	report, err := ev.Evaluate(context.Background(), []models.EvaluationSample{
		{Language: "en", Text: "The government announced on Tuesday that it would invest in new roads and railways over the next ten years."},
	})
	require.NoError(t, err)
	assert.True(t, report.BaselineUsed)
	assert.Equal(t, 1, report.BaselineTotal)
	assert.Equal(t, 1, report.Languages[0].Baseline)
}
