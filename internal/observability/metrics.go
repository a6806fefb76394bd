// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the pipeline.
type Metrics struct {
	// Acquisition
	PagesFetched prometheus.Counter
	FetchErrors  prometheus.Counter

	// Normalization
	TradesNormalized prometheus.Counter
	TradesDropped    prometheus.Counter

	// Filtering
	OutliersFlagged *prometheus.CounterVec // by window

	// Pipeline
	ItemsProcessed *prometheus.CounterVec // by status: ok | error
	ItemDuration   prometheus.Histogram

	registry *prometheus.Registry
}

// NewMetrics creates a Metrics instance registered on its own registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "item_price_lab"
	}

	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		PagesFetched: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_fetched_total",
			Help:      "History pages fetched from the market API.",
		}),
		FetchErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_errors_total",
			Help:      "Per-item acquisition failures.",
		}),
		TradesNormalized: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trades_normalized_total",
			Help:      "Raw records successfully normalized into trades.",
		}),
		TradesDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trades_dropped_total",
			Help:      "Raw records dropped during normalization.",
		}),
		OutliersFlagged: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outliers_flagged_total",
			Help:      "Trades flagged as outliers, by window.",
		}, []string{"window_days"}),
		ItemsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_processed_total",
			Help:      "Items processed, by terminal status.",
		}, []string{"status"}),
		ItemDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "item_duration_seconds",
			Help:      "Wall time per item pipeline run.",
			Buckets:   prometheus.DefBuckets,
		}),
		registry: reg,
	}
}

// Handler returns an http.Handler serving the metrics registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
