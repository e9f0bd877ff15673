package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Lookup sources used as the "source" label of LookupsTotal.
const (
	SourceCache    = "cache"
	SourceStore    = "store"
	SourceUpstream = "upstream"
	SourceNone     = "none"
)

var (
	registry *prometheus.Registry

	// Resolutions per record kind and where the answer came from.
	LookupsTotal *prometheus.CounterVec

	// Upstream provider calls by outcome (success, network_error, upstream_error).
	UpstreamRequestsTotal *prometheus.CounterVec

	// Upstream latency. Bounded by HTTP_REQUEST_TIMEOUT.
	UpstreamRequestDuration *prometheus.HistogramVec

	// Store faults per operation. Reads fall through to upstream, writes are dropped.
	StoreErrorsTotal *prometheus.CounterVec

	// Authorization outcomes (granted, denied, fault).
	AuthDecisionsTotal *prometheus.CounterVec
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	LookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vetero_lookups_total",
			Help: "Total number of location/weather resolutions by source",
		},
		[]string{"kind", "source"},
	)
	UpstreamRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vetero_upstream_requests_total",
			Help: "Total number of upstream provider requests",
		},
		[]string{"provider", "outcome"},
	)
	UpstreamRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vetero_upstream_request_duration_seconds",
			Help:    "Upstream provider latency in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"provider"},
	)
	StoreErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vetero_store_errors_total",
			Help: "Total number of persistent store errors by operation",
		},
		[]string{"operation"},
	)
	AuthDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vetero_auth_decisions_total",
			Help: "Total number of authorization decisions by outcome",
		},
		[]string{"outcome"},
	)

	registry.MustRegister(
		LookupsTotal,
		UpstreamRequestsTotal, UpstreamRequestDuration,
		StoreErrorsTotal,
		AuthDecisionsTotal,
	)
}

// RecordLookup counts a resolution of kind ("location", "weather") served from source.
func RecordLookup(kind, source string) {
	LookupsTotal.WithLabelValues(kind, source).Inc()
}

// RecordUpstream counts one upstream request and observes its latency.
func RecordUpstream(provider, outcome string, took time.Duration) {
	UpstreamRequestsTotal.WithLabelValues(provider, outcome).Inc()
	UpstreamRequestDuration.WithLabelValues(provider).Observe(took.Seconds())
}

// RecordStoreError counts a failed store operation.
func RecordStoreError(operation string) {
	StoreErrorsTotal.WithLabelValues(operation).Inc()
}

// RecordAuthDecision counts an authorization outcome.
func RecordAuthDecision(outcome string) {
	AuthDecisionsTotal.WithLabelValues(outcome).Inc()
}

// Handler serves the application and runtime metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
