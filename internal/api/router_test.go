package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"langpredict/internal/api/handlers"
	apimiddleware "langpredict/internal/api/middleware"
	"langpredict/internal/config"
	"langpredict/internal/detection/detectiontest"
	"langpredict/internal/detection/profile"
	"langpredict/internal/domain/models"
	"langpredict/internal/domain/services"
	"langpredict/internal/metrics"
	"langpredict/internal/streaming"
	"langpredict/pkg/logger"
)

type stubLimiter struct {
	allowed bool
	calls   int
}

func (l *stubLimiter) CheckRateLimit(_ context.Context, _ string, limit int64, window time.Duration) (bool, int64, time.Time, error) {
	l.calls++
	return l.allowed, 0, time.Now().Add(window), nil
}

type testServer struct {
	url      string
	registry *services.ProfileRegistry
}

func testConfig() config.Config {
	return config.Config{
		Server: config.ServerConfig{AdminToken: "secret"},
		CORS: config.CORSConfig{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
		},
		Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

func newTestServer(t *testing.T, cfg config.Config, limiter *stubLimiter, checks map[string]handlers.ReadinessCheck) *testServer {
	t.Helper()
	log := logger.NewNop()

	reg := metrics.NewRegistry()
	m := metrics.NewDetection(reg)
	registry := services.NewProfileRegistry(profile.Static(detectiontest.Profiles()), "test", m, log, profile.WithSeed(1))
	_, err := registry.Reload(context.Background())
	require.NoError(t, err)

	bus := streaming.NewEventBus(nil, log)
	svc := services.NewDetectionService(registry, config.DetectorConfig{Alpha: 0.5, BatchWorkers: 2, MaxBatchSize: 3}, nil, bus, m, log)

	h := handlers.NewHandlers(handlers.Dependencies{
		Detection:    svc,
		Registry:     registry,
		Hub:          streaming.NewWebSocketHub(bus, log),
		EventBus:     bus,
		Checks:       checks,
		Version:      "test",
		MaxBodyBytes: 4096,
		Logger:       log,
	})

	var l apimiddleware.Limiter
	if limiter != nil {
		l = limiter
	}
	router := NewRouter(cfg, h, l, reg.Handler(), log)
	srv := httptest.NewServer(router.Setup())
	t.Cleanup(srv.Close)
	return &testServer{url: srv.URL, registry: registry}
}

func (s *testServer) do(t *testing.T, method, path, body string, header map[string]string) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, s.url+path, rd)
	require.NoError(t, err)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t, testConfig(), nil, map[string]handlers.ReadinessCheck{
		"redis": func(context.Context) error { return nil },
	})

	resp, body := srv.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"status":"healthy"`)

	resp, body = srv.do(t, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var health handlers.HealthResponse
	require.NoError(t, json.Unmarshal(body, &health))
	assert.Equal(t, "ready", health.Status)
	assert.Equal(t, "healthy", health.Checks["redis"])
	assert.Contains(t, health.Checks["profiles"], "healthy")
}

func TestReadyFailsOnBrokenDependency(t *testing.T) {
	srv := newTestServer(t, testConfig(), nil, map[string]handlers.ReadinessCheck{
		"postgres": func(context.Context) error { return errors.New("connection refused") },
	})

	resp, body := srv.do(t, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, string(body), "connection refused")
}

func TestDetectEndpoint(t *testing.T) {
	srv := newTestServer(t, testConfig(), nil, nil)

	resp, body := srv.do(t, http.MethodPost, "/api/v1/detect",
		`{"text":"The quick brown fox jumps over the lazy dog"}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var result models.DetectionResult
	require.NoError(t, json.Unmarshal(body, &result))
	assert.Equal(t, "en", result.Language)
	assert.NotEmpty(t, result.Probabilities)
}

func TestDetectEndpointErrors(t *testing.T) {
	srv := newTestServer(t, testConfig(), nil, nil)

	tests := []struct {
		name   string
		body   string
		status int
		kind   string
	}{
		{"malformed json", `{"text":`, http.StatusBadRequest, ""},
		{"no features", `{"text":"12345 !!!"}`, http.StatusUnprocessableEntity, "no_features"},
		{"negative alpha", `{"text":"hello","alpha":-1}`, http.StatusBadRequest, "configuration"},
		{"unknown prior", `{"text":"hello","priors":{"xx":1}}`, http.StatusBadRequest, "configuration"},
		{"too large", `{"text":"` + strings.Repeat("a", 5000) + `"}`, http.StatusRequestEntityTooLarge, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := srv.do(t, http.MethodPost, "/api/v1/detect", tt.body, nil)
			assert.Equal(t, tt.status, resp.StatusCode)

			var e handlers.ErrorResponse
			require.NoError(t, json.Unmarshal(body, &e))
			assert.NotEmpty(t, e.Error)
			assert.Equal(t, tt.kind, e.Kind)
		})
	}
}

func TestDetectBatchEndpoint(t *testing.T) {
	srv := newTestServer(t, testConfig(), nil, nil)

	resp, body := srv.do(t, http.MethodPost, "/api/v1/detect/batch", `{"items":[
		{"text":"Le renard brun rapide saute par-dessus le chien paresseux"},
		{"text":"..."}
	]}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var batch models.BatchDetectionResponse
	require.NoError(t, json.Unmarshal(body, &batch))
	assert.Equal(t, 1, batch.Succeeded)
	assert.Equal(t, 1, batch.Failed)
	assert.Equal(t, "fr", batch.Items[0].Result.Language)
	assert.Equal(t, "no_features", batch.Items[1].Kind)

	resp, _ = srv.do(t, http.MethodPost, "/api/v1/detect/batch", `{"items":[]}`, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = srv.do(t, http.MethodPost, "/api/v1/detect/batch", `{"items":[{"text":"a"},{"text":"b"},{"text":"c"},{"text":"d"}]}`, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestProfileEndpoints(t *testing.T) {
	srv := newTestServer(t, testConfig(), nil, nil)

	resp, body := srv.do(t, http.MethodGet, "/api/v1/languages", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var info models.ProfileSetInfo
	require.NoError(t, json.Unmarshal(body, &info))
	assert.Equal(t, []string{"en", "fr", "ja"}, info.Languages)
	assert.True(t, info.Seeded)

	resp, body = srv.do(t, http.MethodGet, "/api/v1/profiles/fr", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var summary models.ProfileSummary
	require.NoError(t, json.Unmarshal(body, &summary))
	assert.Equal(t, "fr", summary.Language)
	assert.Equal(t, 1, summary.Slot)

	resp, _ = srv.do(t, http.MethodGet, "/api/v1/profiles/de", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestReloadRequiresAdminToken(t *testing.T) {
	srv := newTestServer(t, testConfig(), nil, nil)

	resp, _ := srv.do(t, http.MethodPost, "/api/v1/profiles/reload", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = srv.do(t, http.MethodPost, "/api/v1/profiles/reload", "", map[string]string{"X-Admin-Token": "wrong"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body := srv.do(t, http.MethodPost, "/api/v1/profiles/reload", "", map[string]string{"X-Admin-Token": "secret"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var info models.ProfileSetInfo
	require.NoError(t, json.Unmarshal(body, &info))
	assert.Equal(t, srv.registry.Current().Fingerprint(), info.Fingerprint)

	resp, body = srv.do(t, http.MethodGet, "/api/v1/profiles/reload/stats", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stats services.SchedulerStats
	require.NoError(t, json.Unmarshal(body, &stats))
	assert.Equal(t, 1, stats.TotalJobs)
	assert.Equal(t, 1, stats.CompletedJobs)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, testConfig(), nil, nil)

	resp, _ := srv.do(t, http.MethodPost, "/api/v1/detect", `{"text":"The quick brown fox"}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := srv.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `langpredict_detections_total{language="en"} 1`)
	assert.Contains(t, string(body), "langpredict_profiles_loaded 3")
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 10}
	limiter := &stubLimiter{allowed: false}
	srv := newTestServer(t, cfg, limiter, nil)

	resp, _ := srv.do(t, http.MethodGet, "/api/v1/languages", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "10", resp.Header.Get("X-RateLimit-Limit"))
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))

	// probes are not limited
	resp, _ = srv.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, limiter.calls)
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, testConfig(), nil, nil)

	resp, _ := srv.do(t, http.MethodOptions, "/api/v1/detect", "", map[string]string{
		"Origin":                        "https://example.com",
		"Access-Control-Request-Method": "POST",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
