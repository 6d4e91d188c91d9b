// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the registry backing the /metrics endpoint
var Registry = prometheus.NewRegistry()

var (
	// HTTPRequests counts served requests by route and status code
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "autotraits",
		Name:      "http_requests_total",
		Help:      "HTTP requests served, by method, route and status.",
	}, []string{"method", "route", "status"})

	// HTTPDuration observes request latency by route
	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "autotraits",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency, by method and route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	// ImportRows counts bulk import rows by outcome (inserted, updated, failed)
	ImportRows = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "autotraits",
		Name:      "import_rows_total",
		Help:      "Measurement import rows, by outcome.",
	}, []string{"outcome"})

	// FileUploads counts file status transitions by resulting status
	FileUploads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "autotraits",
		Name:      "file_uploads_total",
		Help:      "Plant file upload attempts, by resulting status.",
	}, []string{"status"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		HTTPRequests,
		HTTPDuration,
		ImportRows,
		FileUploads,
	)
}

// Handler serves the registry in the Prometheus exposition format
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
