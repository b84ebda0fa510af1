// Package metrics provides the prometheus collectors for the LCOE service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles every application metric. Each Collector owns its own
// registry so tests can construct collectors without duplicate-registration
// panics.
type Collector struct {
	registry *prometheus.Registry

	// Batch metrics
	SitesProcessedTotal  prometheus.Counter
	SiteFailuresTotal    prometheus.Counter
	AnomalyWarningsTotal prometheus.Counter
	BatchDuration        prometheus.Histogram

	// API metrics
	APIRequestsTotal   *prometheus.CounterVec
	APIRequestDuration *prometheus.HistogramVec
}

// NewCollector creates a collector with all metrics registered under the
// given namespace.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Collector{
		registry: registry,

		SitesProcessedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sites_processed_total",
			Help:      "Total number of sites successfully evaluated",
		}),
		SiteFailuresTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "site_failures_total",
			Help:      "Total number of sites excluded for data errors",
		}),
		AnomalyWarningsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "anomaly_warnings_total",
			Help:      "Total number of results flagged with anomaly warnings",
		}),
		BatchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_duration_seconds",
			Help:      "Wall time per batch run",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 30.0},
		}),

		APIRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Total API requests by endpoint and status",
		}, []string{"endpoint", "status"}),
		APIRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "API request duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
		}, []string{"endpoint"}),
	}
}

// ObserveBatch records the outcome of one batch run.
func (c *Collector) ObserveBatch(processed, failed, warned int, elapsed time.Duration) {
	c.SitesProcessedTotal.Add(float64(processed))
	c.SiteFailuresTotal.Add(float64(failed))
	c.AnomalyWarningsTotal.Add(float64(warned))
	c.BatchDuration.Observe(elapsed.Seconds())
}

// Handler exposes this collector's registry in the prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
