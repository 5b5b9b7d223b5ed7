package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Records(t *testing.T) {
	t.Parallel()

	r := New()
	r.RecordRecommendation("medium")
	r.RecordRecommendation("medium")
	r.RecordRecommendation("low")
	r.RecordFallback()
	r.ObserveSimulation("high", 20*time.Millisecond)
	r.ObserveHTTP("/health", http.StatusOK, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.Recommendations.WithLabelValues("medium")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Recommendations.WithLabelValues("low")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.ScorerFallbacks))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.HTTPRequests.WithLabelValues("/health", "200")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.SimulationTime))
}

func TestRegistry_NilIsNoop(t *testing.T) {
	t.Parallel()

	var r *Registry
	assert.NotPanics(t, func() {
		r.RecordRecommendation("low")
		r.RecordFallback()
		r.ObserveSimulation("low", time.Second)
		r.ObserveHTTP("/", 500, time.Second)
	})
	_, err := r.Gatherer().Gather()
	assert.NoError(t, err)
}

func TestRegistry_Handler(t *testing.T) {
	t.Parallel()

	r := New()
	r.RecordRecommendation("high")

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `planner_recommendations_total{risk="high"} 1`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
