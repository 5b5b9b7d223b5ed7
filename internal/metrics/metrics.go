// Package metrics holds the Prometheus collectors for the planner.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry owns every planner collector. A nil *Registry is valid and
// records nothing, so components can take one unconditionally.
type Registry struct {
	reg *prometheus.Registry

	Recommendations *prometheus.CounterVec
	SimulationTime  *prometheus.HistogramVec
	ScorerFallbacks prometheus.Counter
	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
}

// New creates the collectors and registers them, with the Go and process
// collectors, on a fresh registry.
func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),

		Recommendations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "planner_recommendations_total",
				Help: "Recommendation bundles produced, by recommended risk tier",
			},
			[]string{"risk"},
		),

		SimulationTime: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "planner_simulation_seconds",
				Help:    "Monte Carlo run time per tier",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"tier"},
		),

		ScorerFallbacks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "planner_scorer_fallbacks_total",
				Help: "Times the trained risk model failed and the analytic scorer was used",
			},
		),

		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "planner_http_requests_total",
				Help: "HTTP requests by route and status code",
			},
			[]string{"route", "code"},
		),

		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "planner_http_request_seconds",
				Help:    "HTTP request latency by route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
	}

	r.reg.MustRegister(
		r.Recommendations,
		r.SimulationTime,
		r.ScorerFallbacks,
		r.HTTPRequests,
		r.HTTPDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Gatherer exposes the underlying registry.
func (r *Registry) Gatherer() prometheus.Gatherer {
	if r == nil {
		return prometheus.NewRegistry()
	}
	return r.reg
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.Gatherer(), promhttp.HandlerOpts{})
}

func (r *Registry) RecordRecommendation(risk string) {
	if r == nil {
		return
	}
	r.Recommendations.WithLabelValues(risk).Inc()
}

func (r *Registry) ObserveSimulation(tier string, d time.Duration) {
	if r == nil {
		return
	}
	r.SimulationTime.WithLabelValues(tier).Observe(d.Seconds())
}

func (r *Registry) RecordFallback() {
	if r == nil {
		return
	}
	r.ScorerFallbacks.Inc()
}

func (r *Registry) ObserveHTTP(route string, code int, d time.Duration) {
	if r == nil {
		return
	}
	r.HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	r.HTTPDuration.WithLabelValues(route).Observe(d.Seconds())
}
