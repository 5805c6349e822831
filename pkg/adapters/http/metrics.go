package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/storytree/pkg/domain"
)

// Metrics holds the Prometheus collectors of the API in a registry of
// its own.
type Metrics struct {
	registry   *prometheus.Registry
	nodeVisits *prometheus.CounterVec
	choices    *prometheus.CounterVec
	requests   *prometheus.CounterVec
}

// NewMetrics creates and registers the collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		nodeVisits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storytree_node_visits_total",
				Help: "Total number of node visits",
			},
			[]string{"story", "node_id"},
		),
		choices: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storytree_choices_total",
				Help: "Total number of options chosen",
			},
			[]string{"story", "node_id"},
		),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storytree_http_requests_total",
				Help: "HTTP requests by route and status code",
			},
			[]string{"method", "route", "code"},
		),
	}
	m.registry.MustRegister(m.nodeVisits, m.choices, m.requests)
	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Hooks returns lifecycle hooks feeding the node and choice counters.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(_ context.Context, e *domain.NodeEvent) {
			m.nodeVisits.WithLabelValues(e.StoryID, e.NodeID).Inc()
		},
		OnChoice: func(_ context.Context, e *domain.ChoiceEvent) {
			m.choices.WithLabelValues(e.StoryID, e.NodeID).Inc()
		},
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Instrument counts requests by route pattern.
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
	})
}
