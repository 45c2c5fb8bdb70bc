// Package metrics exposes Prometheus instrumentation for the catalog adapter,
// favorites reconciliation and session lifecycle.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcomes used as label values.
const (
	OutcomeOK          = "ok"
	OutcomeError       = "error"
	OutcomeApplied     = "applied"
	OutcomeDiscarded   = "discarded"
	OutcomeFailed      = "failed"
	OutcomeRejected    = "rejected"
	OutcomeRateLimited = "rate_limited"
)

// Recorder is the narrow view domain packages depend on.
type Recorder interface {
	RecordCatalogRequest(endpoint, outcome string, latency time.Duration)
	RecordFavoritesReload(outcome string)
	RecordFavoriteToggle(outcome string)
	RecordSessionTransition(state string)
	SetActiveSessions(n int)
}

// Collector is the Prometheus-backed Recorder.
type Collector struct {
	catalogRequests    *prometheus.CounterVec
	catalogLatency     prometheus.Histogram
	favoritesReloads   *prometheus.CounterVec
	favoriteToggles    *prometheus.CounterVec
	sessionTransitions *prometheus.CounterVec
	activeSessions     prometheus.Gauge
}

// NewCollector creates a Collector and registers its metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		catalogRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "findfilms_catalog_requests_total",
			Help: "Catalog API requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		catalogLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "findfilms_catalog_latency_seconds",
			Help:    "Catalog API request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		favoritesReloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "findfilms_favorites_reloads_total",
			Help: "Favorites reloads and snapshots by outcome (applied, discarded, failed).",
		}, []string{"outcome"}),
		favoriteToggles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "findfilms_favorite_toggles_total",
			Help: "Favorite toggles by outcome.",
		}, []string{"outcome"}),
		sessionTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "findfilms_session_transitions_total",
			Help: "Session identity transitions by target state.",
		}, []string{"state"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "findfilms_active_sessions",
			Help: "Number of open client sessions.",
		}),
	}

	reg.MustRegister(
		c.catalogRequests,
		c.catalogLatency,
		c.favoritesReloads,
		c.favoriteToggles,
		c.sessionTransitions,
		c.activeSessions,
	)

	return c
}

func (c *Collector) RecordCatalogRequest(endpoint, outcome string, latency time.Duration) {
	c.catalogRequests.WithLabelValues(endpoint, outcome).Inc()
	c.catalogLatency.Observe(latency.Seconds())
}

func (c *Collector) RecordFavoritesReload(outcome string) {
	c.favoritesReloads.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordFavoriteToggle(outcome string) {
	c.favoriteToggles.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordSessionTransition(state string) {
	c.sessionTransitions.WithLabelValues(state).Inc()
}

func (c *Collector) SetActiveSessions(n int) {
	c.activeSessions.Set(float64(n))
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop discards every observation.
type Nop struct{}

func (Nop) RecordCatalogRequest(string, string, time.Duration) {}
func (Nop) RecordFavoritesReload(string)                       {}
func (Nop) RecordFavoriteToggle(string)                        {}
func (Nop) RecordSessionTransition(string)                     {}
func (Nop) SetActiveSessions(int)                              {}
