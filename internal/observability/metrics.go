package observability

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/IshaanNene/NewsGoat/internal/types"
)

// Metrics tracks operational metrics for search runs.
// All recorder methods are safe to call on a nil *Metrics.
type Metrics struct {
	registry *prometheus.Registry

	pagesFetched     prometheus.Counter
	recordsExtracted prometheus.Counter
	fetchErrors      prometheus.Counter
	extractErrors    *prometheus.CounterVec
	fetchDuration    prometheus.Histogram

	logger *slog.Logger
}

// NewMetrics creates a Metrics instance backed by a private registry.
func NewMetrics(logger *slog.Logger) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		pagesFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "newsgoat_pages_fetched_total",
			Help: "Listing pages fetched successfully.",
		}),
		recordsExtracted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "newsgoat_records_extracted_total",
			Help: "News records extracted from listing pages.",
		}),
		fetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "newsgoat_fetch_errors_total",
			Help: "Listing page fetches that failed.",
		}),
		extractErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newsgoat_extract_errors_total",
			Help: "Result fragments that could not be extracted, by failure kind.",
		}, []string{"kind"}),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "newsgoat_fetch_duration_seconds",
			Help:    "Duration of listing page fetches.",
			Buckets: prometheus.DefBuckets,
		}),
		logger: logger.With("component", "metrics"),
	}

	m.registry.MustRegister(
		m.pagesFetched,
		m.recordsExtracted,
		m.fetchErrors,
		m.extractErrors,
		m.fetchDuration,
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the metrics in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorLog: slog.NewLogLogger(m.logger.Handler(), slog.LevelError),
	})
}

// ObserveFetch records one page fetch.
func (m *Metrics) ObserveFetch(d time.Duration, err error) {
	if m == nil {
		return
	}
	m.fetchDuration.Observe(d.Seconds())
	if err != nil {
		m.fetchErrors.Inc()
		return
	}
	m.pagesFetched.Inc()
}

// AddRecords records n extracted records.
func (m *Metrics) AddRecords(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.recordsExtracted.Add(float64(n))
}

// ObserveExtractError records one extraction failure.
func (m *Metrics) ObserveExtractError(kind types.ExtractKind) {
	if m == nil {
		return
	}
	m.extractErrors.WithLabelValues(kind.String()).Inc()
}
