// Package metrics holds the prometheus instrumentation for the orchestration
// layer. A nil *Metrics is valid and turns every recording call into a no-op,
// so library consumers that don't scrape can skip the wiring entirely.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the cache and fetch instruments.
type Metrics struct {
	cacheHits     prometheus.Counter
	cacheMisses   prometheus.Counter
	fetchErrors   *prometheus.CounterVec
	eventsFetched *prometheus.CounterVec
	fetchDuration prometheus.Histogram
}

// New creates the instrument set and registers it on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gitline",
			Name:      "cache_hits_total",
			Help:      "Timeline cache hits",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gitline",
			Name:      "cache_misses_total",
			Help:      "Timeline cache misses (stale or missing entries)",
		}),
		fetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gitline",
			Name:      "provider_fetch_errors_total",
			Help:      "Provider fetch failures, including timeouts",
		}, []string{"provider"}),
		eventsFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gitline",
			Name:      "provider_events_fetched_total",
			Help:      "Events fetched per provider",
		}, []string{"provider"}),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "gitline",
			Name:      "fetch_duration_seconds",
			Help:      "Wall time of one orchestrated multi-provider fetch",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.cacheHits, m.cacheMisses, m.fetchErrors, m.eventsFetched, m.fetchDuration)
	return m
}

func (m *Metrics) CacheHit() {
	if m != nil {
		m.cacheHits.Inc()
	}
}

func (m *Metrics) CacheMiss() {
	if m != nil {
		m.cacheMisses.Inc()
	}
}

func (m *Metrics) FetchError(providerID string) {
	if m != nil {
		m.fetchErrors.WithLabelValues(providerID).Inc()
	}
}

func (m *Metrics) EventsFetched(providerID string, n int) {
	if m != nil {
		m.eventsFetched.WithLabelValues(providerID).Add(float64(n))
	}
}

func (m *Metrics) ObserveFetch(d time.Duration) {
	if m != nil {
		m.fetchDuration.Observe(d.Seconds())
	}
}
