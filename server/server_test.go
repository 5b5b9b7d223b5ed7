package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/planner/internal/metrics"
	"github.com/rustyeddy/planner/recommend"
	"github.com/rustyeddy/planner/sim"
)

func testEngine() *recommend.Engine {
	cfg := sim.DefaultConfig()
	cfg.Trials = 500
	return recommend.New(recommend.Options{
		Simulator: sim.New(cfg),
		Seed:      42,
		IDs:       func() string { return "01TESTBUNDLE" },
	})
}

func newTestServer(t *testing.T, cfg Config, engine Recommender) (*Server, *metrics.Registry, *logtest.Hook) {
	t.Helper()
	log, hook := logtest.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	reg := metrics.New()
	if engine == nil {
		engine = testEngine()
	}
	return New(cfg, engine, log, reg), reg, hook
}

func do(t *testing.T, h http.Handler, method, path, body string, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRecommendEndpoint(t *testing.T) {
	t.Parallel()

	s, reg, hook := newTestServer(t, Config{}, nil)
	rec := do(t, s.Handler(), http.MethodPost, "/api/planning/recommend",
		`{"goal":"买房","currentAsset":150000,"monthlyIncome":12000,"age":30}`, nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var resp struct {
		ID              string                              `json:"id"`
		Success         bool                                `json:"success"`
		RecommendedRisk string                              `json:"recommended_risk"`
		Recommendations map[string]recommend.Recommendation `json:"recommendations"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "01TESTBUNDLE", resp.ID)
	assert.Equal(t, "medium", resp.RecommendedRisk)
	require.Len(t, resp.Recommendations, 3)
	assert.Equal(t, 3600.0, resp.Recommendations["low"].MonthlySave)
	assert.Equal(t, 4800.0, resp.Recommendations["medium"].MonthlySave)
	assert.Equal(t, 6000.0, resp.Recommendations["high"].MonthlySave)
	assert.Equal(t, 1000000.0, resp.Recommendations["high"].TargetAmount)

	assert.Equal(t, 1.0, testutil.ToFloat64(reg.HTTPRequests.WithLabelValues("/api/planning/recommend", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.Recommendations.WithLabelValues("medium")))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "request", entry.Message)
	assert.Equal(t, http.StatusOK, entry.Data["status"])
	assert.Equal(t, rec.Header().Get("X-Request-ID"), entry.Data["request_id"])
}

func TestRecommendEndpoint_SnakeCase(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestServer(t, Config{}, nil)
	rec := do(t, s.Handler(), http.MethodPost, "/api/planning/recommend",
		`{"goal":"car","current_asset":600000,"monthly_income":20000}`,
		map[string]string{"X-Request-ID": "abc-123"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))

	var resp recommendResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Recommendations)
	assert.Equal(t, 0, resp.Recommendations.Low.TargetMonths)
	assert.Equal(t, 600000.0, resp.Recommendations.High.ExpectedFinalAmount)
}

func TestRecommendEndpoint_BadRequests(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		body   string
		errMsg string
	}{
		{"malformed", `{"goal":`, "invalid JSON body"},
		{"missing asset", `{"goal":"house","monthlyIncome":1000}`, "currentAsset is required"},
		{"missing income", `{"goal":"house","currentAsset":1000}`, "monthlyIncome is required"},
		{"blank goal", `{"goal":" ","currentAsset":1000,"monthlyIncome":1000}`, "goal is required"},
		{"negative asset", `{"goal":"house","currentAsset":-1,"monthlyIncome":1000}`, "currentAsset must be >= 0"},
		{"wrong type", `{"goal":"house","currentAsset":"lots","monthlyIncome":1000}`, "invalid JSON body"},
	}
	s, _, _ := newTestServer(t, Config{}, nil)
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := do(t, s.Handler(), http.MethodPost, "/api/planning/recommend", tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var resp recommendResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			assert.Contains(t, resp.Message, tt.errMsg)
			assert.Nil(t, resp.Recommendations)
		})
	}
}

type failingEngine struct{}

func (failingEngine) Recommend(context.Context, recommend.Profile) (*recommend.Bundle, error) {
	return nil, errors.New("simulator exploded")
}
func (failingEngine) Model() string { return "geometric" }

func TestRecommendEndpoint_InternalError(t *testing.T) {
	t.Parallel()

	s, _, hook := newTestServer(t, Config{}, failingEngine{})
	rec := do(t, s.Handler(), http.MethodPost, "/api/planning/recommend",
		`{"goal":"house","currentAsset":1,"monthlyIncome":1}`, nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "exploded")

	var sawError bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.ErrorLevel && e.Message == "recommend failed" {
			sawError = true
		}
	}
	assert.True(t, sawError)
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestServer(t, Config{RateLimit: 0.001, RateBurst: 1}, failingEngine{})
	h := s.Handler()
	body := `{"goal":"house","currentAsset":1,"monthlyIncome":1}`

	first := do(t, h, http.MethodPost, "/api/planning/recommend", body, nil)
	assert.Equal(t, http.StatusInternalServerError, first.Code)

	second := do(t, h, http.MethodPost, "/api/planning/recommend", body, nil)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "1", second.Header().Get("Retry-After"))

	// health is not rate limited
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", "", nil).Code)
}

func TestClientLimiter_SweepsIdleClients(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	l := newClientLimiter(1, 1)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.2"))
	assert.Equal(t, 2, l.size())

	now = now.Add(l.ttl / 2)
	assert.True(t, l.Allow("10.0.0.2"))
	assert.Zero(t, l.sweep())

	now = now.Add(l.ttl/2 + time.Second)
	assert.Equal(t, 1, l.sweep())
	assert.Equal(t, 1, l.size())

	// a returning client starts with a fresh bucket
	assert.True(t, l.Allow("10.0.0.1"))

	now = now.Add(2 * l.ttl)
	assert.Equal(t, 2, l.sweep())
	assert.Zero(t, l.size())
}

func TestClientLimiter_RunStopsWithContext(t *testing.T) {
	t.Parallel()

	l := newClientLimiter(1, 1)
	l.Allow("10.0.0.1")
	l.ttl = 0

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.run(ctx, time.Millisecond, logrus.New())
		close(done)
	}()

	assert.Eventually(t, func() bool { return l.size() == 0 }, time.Second, time.Millisecond)
	cancel()
	<-done
}

func TestHealthAndMetrics(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestServer(t, Config{}, nil)
	h := s.Handler()

	rec := do(t, h, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","model":"geometric"}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `planner_http_requests_total{code="200",route="/health"} 1`)
}

func TestCORSAndNotFound(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestServer(t, Config{CORSOrigins: []string{"http://localhost:3000"}}, nil)
	h := s.Handler()

	pre := do(t, h, http.MethodOptions, "/api/planning/recommend", "", map[string]string{"Origin": "http://localhost:3000"})
	assert.Equal(t, http.StatusNoContent, pre.Code)
	assert.Equal(t, "http://localhost:3000", pre.Header().Get("Access-Control-Allow-Origin"))

	other := do(t, h, http.MethodGet, "/health", "", map[string]string{"Origin": "https://evil.example"})
	assert.Empty(t, other.Header().Get("Access-Control-Allow-Origin"))

	missing := do(t, h, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, missing.Code)
	assert.Contains(t, missing.Body.String(), `"success":false`)

	wrongMethod := do(t, h, http.MethodGet, "/api/planning/recommend", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, wrongMethod.Code)
}

func TestListenAndServe_Shutdown(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestServer(t, Config{Addr: "127.0.0.1:0"}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx) }()
	cancel()
	assert.NoError(t, <-done)
}

var _ Recommender = (*recommend.Engine)(nil)
