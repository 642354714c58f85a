// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Fetch outcomes.
const (
	OutcomeSuccess    = "success"
	OutcomeInvalid    = "invalid_address"
	OutcomeNoHolders  = "no_holders"
	OutcomeRPCError   = "rpc_error"
	OutcomeMetaError  = "metadata_error"
	OutcomeSuperseded = "superseded"
	OutcomeError      = "error"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Fetch metrics
	FetchesTotal     *prometheus.CounterVec
	FetchDuration    prometheus.Histogram
	HoldersPerFetch  prometheus.Histogram
	LinkErrors       prometheus.Counter
	SnapshotErrors   prometheus.Counter
	LastSuccessfulAt prometheus.Gauge

	// Provider metrics
	RPCCallLatency *prometheus.HistogramVec

	// Layout metrics
	LayoutDuration prometheus.Histogram
	LayoutNodes    prometheus.Gauge

	// Dashboard metrics
	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
	WSSubscribers   prometheus.Gauge
	RecentSearches  prometheus.Gauge

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance registered with reg.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "holdermap"
	}
	factory := promauto.With(reg)

	return &Metrics{
		FetchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "fetches_total",
			Help:      "Total number of token fetches by outcome",
		}, []string{"outcome"}),
		FetchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "fetch_duration_seconds",
			Help:      "Token fetch duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		HoldersPerFetch: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "holders_per_fetch",
			Help:      "Number of holders found before truncation",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}),
		LinkErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "link_errors_total",
			Help:      "Total number of failed holder linking attempts",
		}),
		SnapshotErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "snapshot_errors_total",
			Help:      "Total number of failed snapshot writes",
		}),
		LastSuccessfulAt: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_fetch_timestamp",
			Help:      "Unix timestamp of last successful fetch",
		}),

		RPCCallLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Provider call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),

		LayoutDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "graph",
			Name:      "layout_duration_seconds",
			Help:      "Force layout computation time in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		LayoutNodes: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "graph",
			Name:      "layout_nodes",
			Help:      "Number of nodes in the last computed layout",
		}),

		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		WSSubscribers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "ws_subscribers",
			Help:      "Number of connected state stream clients",
		}),
		RecentSearches: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "recent_searches",
			Help:      "Number of entries in the recent search list",
		}),

		DBQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("", prometheus.DefaultRegisterer)

// RecordFetch records a finished fetch.
func RecordFetch(outcome string, seconds float64) {
	DefaultMetrics.FetchesTotal.WithLabelValues(outcome).Inc()
	DefaultMetrics.FetchDuration.Observe(seconds)
}

// RecordHolders records the number of holders found by a fetch.
func RecordHolders(n int) {
	DefaultMetrics.HoldersPerFetch.Observe(float64(n))
}

// RecordLinkError increments the linking failure counter.
func RecordLinkError() {
	DefaultMetrics.LinkErrors.Inc()
}

// RecordSnapshotError increments the snapshot failure counter.
func RecordSnapshotError() {
	DefaultMetrics.SnapshotErrors.Inc()
}

// RecordSuccess stamps the last successful fetch time.
func RecordSuccess(unixSeconds float64) {
	DefaultMetrics.LastSuccessfulAt.Set(unixSeconds)
}

// RecordRPCLatency records RPC call latency.
func RecordRPCLatency(method string, seconds float64) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(seconds)
}

// RecordLayout records a finished layout computation.
func RecordLayout(nodes int, seconds float64) {
	DefaultMetrics.LayoutDuration.Observe(seconds)
	DefaultMetrics.LayoutNodes.Set(float64(nodes))
}

// RecordHTTPRequest records a served HTTP request.
func RecordHTTPRequest(method, route, status string, seconds float64) {
	DefaultMetrics.HTTPRequests.WithLabelValues(method, route, status).Inc()
	DefaultMetrics.HTTPDuration.WithLabelValues(method, route).Observe(seconds)
}

// SetWSSubscribers sets the connected websocket client gauge.
func SetWSSubscribers(n int) {
	DefaultMetrics.WSSubscribers.Set(float64(n))
}

// SetRecentSearches sets the recent search gauge.
func SetRecentSearches(n int) {
	DefaultMetrics.RecentSearches.Set(float64(n))
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
