package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Post outcomes recorded by the assembler.
const (
	OutcomeDrafted    = "drafted"
	OutcomeNoPrice    = "no_price"
	OutcomeNotProduct = "not_product"
	OutcomeNotImage   = "not_image"
)

// PipelineMetrics is nil-safe so callers can run without instrumentation.
type PipelineMetrics struct {
	registry *prometheus.Registry

	fetchTotal    *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	postsTotal    *prometheus.CounterVec
	importedTotal prometheus.Counter
}

func NewPipelineMetrics(collector string) *PipelineMetrics {
	registry := prometheus.NewRegistry()

	fetchTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   "importer",
			Subsystem:   "fetch",
			Name:        "total",
			Help:        "Total fetch cycles by status.",
			ConstLabels: prometheus.Labels{"collector": collector},
		},
		[]string{"status"},
	)
	fetchDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   "importer",
			Subsystem:   "fetch",
			Name:        "duration_seconds",
			Help:        "Fetch duration in seconds by status.",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: prometheus.Labels{"collector": collector},
		},
		[]string{"status"},
	)
	postsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "importer",
			Subsystem: "caption",
			Name:      "posts_total",
			Help:      "Fetched posts by parse outcome.",
		},
		[]string{"outcome"},
	)
	importedTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "importer",
			Subsystem: "catalog",
			Name:      "products_imported_total",
			Help:      "Products created from reviewed drafts.",
		},
	)

	registry.MustRegister(fetchTotal, fetchDuration, postsTotal, importedTotal)

	return &PipelineMetrics{
		registry:      registry,
		fetchTotal:    fetchTotal,
		fetchDuration: fetchDuration,
		postsTotal:    postsTotal,
		importedTotal: importedTotal,
	}
}

func (m *PipelineMetrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *PipelineMetrics) ObserveFetch(duration time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.fetchTotal.WithLabelValues(status).Inc()
	m.fetchDuration.WithLabelValues(status).Observe(duration.Seconds())
}

func (m *PipelineMetrics) ObservePost(outcome string) {
	if m == nil {
		return
	}
	m.postsTotal.WithLabelValues(outcome).Inc()
}

func (m *PipelineMetrics) AddImported(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.importedTotal.Add(float64(n))
}
