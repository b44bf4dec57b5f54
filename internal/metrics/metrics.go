// Package metrics exposes Prometheus metrics for detections, the result cache
// and the loaded profile set.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "langpredict"

// Registry wraps Prometheus registry
type Registry struct {
	reg *prometheus.Registry
}

// NewRegistry creates a registry with the Go runtime and process collectors.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Registry{reg: reg}
}

// Register registers a collector
func (r *Registry) Register(c prometheus.Collector) error {
	return r.reg.Register(c)
}

// Gatherer returns the registry as a prometheus.Gatherer
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Detection holds the service's detection collectors.
type Detection struct {
	detections *prometheus.CounterVec
	errors     *prometheus.CounterVec
	duration   prometheus.Histogram
	cache      *prometheus.CounterVec
	profiles   prometheus.Gauge
	vocabulary prometheus.Gauge
}

// NewDetection creates the detection collectors and registers them with reg.
// A nil reg leaves them unregistered, which tests use.
func NewDetection(reg *Registry) *Detection {
	m := &Detection{
		detections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detections_total",
			Help:      "Completed detections by detected language.",
		}, []string{"language"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detection_errors_total",
			Help:      "Failed detections by error kind.",
		}, []string{"kind"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "detection_duration_seconds",
			Help:      "Time spent scoring a text.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_requests_total",
			Help:      "Result cache lookups by outcome.",
		}, []string{"result"}),
		profiles: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "profiles_loaded",
			Help:      "Languages in the active profile set.",
		}),
		vocabulary: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "profile_vocabulary_ngrams",
			Help:      "Distinct n-grams in the active profile set.",
		}),
	}
	if reg != nil {
		for _, c := range []prometheus.Collector{m.detections, m.errors, m.duration, m.cache, m.profiles, m.vocabulary} {
			_ = reg.Register(c)
		}
	}
	return m
}

// ObserveDetection records a successful detection.
func (m *Detection) ObserveDetection(lang string, elapsed time.Duration) {
	m.detections.WithLabelValues(lang).Inc()
	m.duration.Observe(elapsed.Seconds())
}

// ObserveError records a failed detection.
func (m *Detection) ObserveError(kind string) {
	m.errors.WithLabelValues(kind).Inc()
}

// ObserveCache records a cache hit or miss.
func (m *Detection) ObserveCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cache.WithLabelValues(result).Inc()
}

// SetProfiles records the size of the active profile set.
func (m *Detection) SetProfiles(languages, vocabulary int) {
	m.profiles.Set(float64(languages))
	m.vocabulary.Set(float64(vocabulary))
}
