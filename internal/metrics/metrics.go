// Package metrics exposes the Prometheus instruments of the portfolio service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "portfolio"

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, path, and status code",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		},
	)

	EditorSavesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "editor",
			Name:      "saves_total",
			Help:      "Editor saves by content kind, operation (insert/update) and result",
		},
		[]string{"kind", "operation", "result"},
	)

	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "media",
			Name:      "uploads_total",
			Help:      "Image uploads by content kind and result",
		},
		[]string{"kind", "result"},
	)

	ContentCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "content",
			Name:      "cache_lookups_total",
			Help:      "Public content cache lookups by result (hit/miss)",
		},
		[]string{"result"},
	)

	HousekeepingDeletedRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "housekeeping",
			Name:      "deleted_rows_total",
			Help:      "Orphaned join rows and expired session revocations deleted by table",
		},
		[]string{"table"},
	)
)

func result(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

// ObserveSave counts an editor save
func ObserveSave(kind, operation string, err error) {
	EditorSavesTotal.WithLabelValues(kind, operation, result(err)).Inc()
}

// ObserveUpload counts an image upload
func ObserveUpload(kind string, err error) {
	UploadsTotal.WithLabelValues(kind, result(err)).Inc()
}

func ObserveCacheLookup(hit bool) {
	if hit {
		ContentCacheLookups.WithLabelValues("hit").Inc()
		return
	}
	ContentCacheLookups.WithLabelValues("miss").Inc()
}
