package services

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"langpredict/internal/detection"
	"langpredict/internal/detection/profile"
	"langpredict/internal/domain/models"
	"langpredict/internal/metrics"
	"langpredict/pkg/logger"
)

// EventPublisher publishes service events to streaming consumers
type EventPublisher interface {
	Publish(ctx context.Context, event *models.Event) error
}

type loadedSet struct {
	set  *profile.Set
	info *models.ProfileSetInfo
}

// ProfileRegistry holds the active profile set. Readers never block: a reload
// builds a complete new Set and swaps it in, so in-flight detections keep the
// set they started with.
type ProfileRegistry struct {
	source     profile.Source
	sourceName string
	opts       []profile.SetOption
	metrics    *metrics.Detection
	logger     *logger.Logger

	publisher EventPublisher

	reloadMu sync.Mutex
	current  atomic.Pointer[loadedSet]
}

// NewProfileRegistry creates a registry reading from src. sourceName is only
// reported in ProfileSetInfo. No set is loaded until Reload is called.
func NewProfileRegistry(src profile.Source, sourceName string, m *metrics.Detection, log *logger.Logger, opts ...profile.SetOption) *ProfileRegistry {
	if m == nil {
		m = metrics.NewDetection(nil)
	}
	return &ProfileRegistry{
		source:     src,
		sourceName: sourceName,
		opts:       opts,
		metrics:    m,
		logger:     log.WithComponent("profile-registry"),
	}
}

// SetPublisher sets the publisher notified after every successful reload
func (r *ProfileRegistry) SetPublisher(p EventPublisher) {
	r.publisher = p
}

// Reload loads the profiles from the source and replaces the active set. On
// failure the previous set stays active.
func (r *ProfileRegistry) Reload(ctx context.Context) (*models.ProfileSetInfo, error) {
	r.reloadMu.Lock()
	defer r.reloadMu.Unlock()

	start := time.Now()
	set, err := profile.LoadSet(ctx, r.source, r.opts...)
	if err != nil {
		r.logger.Error().Err(err).Str("source", r.sourceName).Msg("failed to load profiles")
		return nil, err
	}

	info := r.describe(set)
	r.current.Store(&loadedSet{set: set, info: info})
	r.metrics.SetProfiles(set.Len(), set.Vocabulary())

	r.logger.Info().
		Str("source", r.sourceName).
		Str("fingerprint", info.Fingerprint).
		Int("languages", set.Len()).
		Int("vocabulary", set.Vocabulary()).
		Dur("duration", time.Since(start)).
		Msg("profile set loaded")

	if r.publisher != nil {
		if err := r.publisher.Publish(ctx, models.NewProfilesLoadedEvent(info)); err != nil {
			r.logger.Warn().Err(err).Msg("failed to publish profiles loaded event")
		}
	}
	return info, nil
}

// Current returns the active set, or nil before the first successful load
func (r *ProfileRegistry) Current() *profile.Set {
	if l := r.current.Load(); l != nil {
		return l.set
	}
	return nil
}

// Ready reports whether a profile set is loaded
func (r *ProfileRegistry) Ready() bool {
	return r.current.Load() != nil
}

// Info describes the active set
func (r *ProfileRegistry) Info() (*models.ProfileSetInfo, error) {
	l := r.current.Load()
	if l == nil {
		return nil, errNotLoaded()
	}
	return l.info, nil
}

// Languages returns the languages of the active set in slot order
func (r *ProfileRegistry) Languages() []string {
	if l := r.current.Load(); l != nil {
		return l.set.Languages()
	}
	return nil
}

// Profile returns the summary of one loaded language
func (r *ProfileRegistry) Profile(lang string) (*models.ProfileSummary, bool) {
	l := r.current.Load()
	if l == nil {
		return nil, false
	}
	for i := range l.info.Profiles {
		if l.info.Profiles[i].Language == lang {
			s := l.info.Profiles[i]
			return &s, true
		}
	}
	return nil, false
}

func (r *ProfileRegistry) describe(set *profile.Set) *models.ProfileSetInfo {
	_, seeded := set.Seed()
	info := &models.ProfileSetInfo{
		Fingerprint: set.Fingerprint(),
		Source:      r.sourceName,
		Languages:   set.Languages(),
		Vocabulary:  set.Vocabulary(),
		Seeded:      seeded,
		LoadedAt:    time.Now().UTC(),
	}
	for i, s := range set.Summaries() {
		info.Profiles = append(info.Profiles, models.ProfileSummary{
			Language:   s.Name,
			Slot:       i,
			Unigrams:   s.NGramCounts[0],
			Bigrams:    s.NGramCounts[1],
			Trigrams:   s.NGramCounts[2],
			Vocabulary: s.Vocabulary,
		})
	}
	return info
}

func errNotLoaded() error {
	return detection.ConfigError("no language profiles loaded")
}
