// Package metrics provides Prometheus instrumentation for resolution, the
// gazetteer and the HTTP surface.
//
// Metrics are exposed via the /metrics endpoint. All metric operations are
// thread-safe via Prometheus's internal locking.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "coref"

// Metrics holds every collector. It implements engine.Observer and
// gazetteer.Observer.
type Metrics struct {
	// DocumentsTotal counts resolved documents.
	DocumentsTotal prometheus.Counter

	// ResolveSeconds measures whole-document resolution time.
	ResolveSeconds prometheus.Histogram

	// MentionsTotal counts detected mentions.
	MentionsTotal prometheus.Counter

	// ChainsTotal counts emitted reference chains.
	ChainsTotal prometheus.Counter

	// SieveLinksTotal counts links made per sieve.
	// Labels: sieve
	SieveLinksTotal *prometheus.CounterVec

	// GazetteerLookupsTotal counts gazetteer lookups by outcome.
	// Labels: outcome (cache_hit, found, not_found, error, circuit_open)
	GazetteerLookupsTotal *prometheus.CounterVec

	// HTTPRequestsTotal counts API requests.
	// Labels: path, code
	HTTPRequestsTotal *prometheus.CounterVec
}

// New creates and registers all collectors on reg. Use
// prometheus.DefaultRegisterer in production and a fresh
// prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		DocumentsTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_total",
			Help:      "Total number of resolved documents",
		}),
		ResolveSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "resolve_duration_seconds",
			Help:      "Document resolution time in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		MentionsTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mentions_total",
			Help:      "Total number of detected mentions",
		}),
		ChainsTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chains_total",
			Help:      "Total number of emitted reference chains",
		}),
		SieveLinksTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sieve",
			Name:      "links_total",
			Help:      "Total links made by each sieve",
		}, []string{"sieve"}),
		GazetteerLookupsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gazetteer",
			Name:      "lookups_total",
			Help:      "Total gazetteer lookups by outcome",
		}, []string{"outcome"}),
		HTTPRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests by path and status code",
		}, []string{"path", "code"}),
	}
}

// ObserveResolve records one resolved document.
func (m *Metrics) ObserveResolve(elapsed time.Duration, mentions, chains int) {
	m.DocumentsTotal.Inc()
	m.ResolveSeconds.Observe(elapsed.Seconds())
	m.MentionsTotal.Add(float64(mentions))
	m.ChainsTotal.Add(float64(chains))
}

// ObserveSieve records the links one sieve made in one document.
func (m *Metrics) ObserveSieve(name string, links int) {
	m.SieveLinksTotal.WithLabelValues(name).Add(float64(links))
}

// ObserveLookup records one gazetteer lookup outcome.
func (m *Metrics) ObserveLookup(outcome string) {
	m.GazetteerLookupsTotal.WithLabelValues(outcome).Inc()
}

// ObserveRequest records one HTTP request.
func (m *Metrics) ObserveRequest(path string, code int) {
	m.HTTPRequestsTotal.WithLabelValues(path, strconv.Itoa(code)).Inc()
}
