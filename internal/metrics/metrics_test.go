package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectionCollectors(t *testing.T) {
	m := NewDetection(nil)

	m.ObserveDetection("en", 2*time.Millisecond)
	m.ObserveDetection("en", time.Millisecond)
	m.ObserveDetection("fr", time.Millisecond)
	m.ObserveError("no_features")
	m.ObserveCache(true)
	m.ObserveCache(false)
	m.ObserveCache(false)
	m.SetProfiles(3, 1200)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.detections.WithLabelValues("en")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errors.WithLabelValues("no_features")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cache.WithLabelValues("miss")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.profiles))
	assert.Equal(t, 1200.0, testutil.ToFloat64(m.vocabulary))
}

func TestHandlerExposesRegisteredMetrics(t *testing.T) {
	reg := NewRegistry()
	m := NewDetection(reg)
	m.ObserveDetection("ja", time.Millisecond)

	rec := httptest.NewRecorder()
	reg.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `langpredict_detections_total{language="ja"} 1`), body)
	assert.Contains(t, body, "go_goroutines")
}
