package metrics

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/walletworks/balance-service/internal/app/domain/ledger"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "balance_service",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "balance_service",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "balance_service",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	balanceReads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "balance_service",
			Subsystem: "ledger",
			Name:      "balance_reads_total",
			Help:      "Total number of balance reads by source.",
		},
		[]string{"source"},
	)

	transactions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "balance_service",
			Subsystem: "ledger",
			Name:      "transactions_total",
			Help:      "Total number of ledger write attempts.",
		},
		[]string{"action", "status"},
	)

	cacheErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "balance_service",
			Subsystem: "cache",
			Name:      "errors_total",
			Help:      "Total number of tolerated cache failures.",
		},
		[]string{"op"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		balanceReads,
		transactions,
		cacheErrors,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordBalanceRead counts a balance read served from the given source.
func RecordBalanceRead(source string) {
	balanceReads.WithLabelValues(source).Inc()
}

// RecordTransaction counts a write attempt and its outcome. Actions outside
// the known set collapse to a single label so unvalidated input cannot mint
// new time series.
func RecordTransaction(action, status string) {
	label := strings.ToUpper(action)
	if !ledger.Action(label).Valid() {
		label = "UNKNOWN"
	}
	transactions.WithLabelValues(label, status).Inc()
}

// RecordCacheError counts a cache failure that was degraded around.
func RecordCacheError(op string) {
	cacheErrors.WithLabelValues(op).Inc()
}

// HTTPInFlight exposes the in-flight gauge to middleware.
func HTTPInFlight() prometheus.Gauge { return httpInFlight }

// ObserveHTTPRequest records one handled HTTP request.
func ObserveHTTPRequest(method, path, status string, seconds float64) {
	httpRequests.WithLabelValues(method, path, status).Inc()
	httpDuration.WithLabelValues(method, path).Observe(seconds)
}
