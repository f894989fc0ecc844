// Package metrics holds the Prometheus collectors of the blog server.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequests counts handled requests by method, route template and status.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "techporium_http_requests_total",
		Help: "Total number of HTTP requests handled",
	}, []string{"method", "route", "status"})

	// HTTPDuration records request latency by route template.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "techporium_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// ContentStoreRequests counts calls to the content store by operation and outcome.
	ContentStoreRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "techporium_content_store_requests_total",
		Help: "Total number of content store calls",
	}, []string{"operation", "outcome"})

	// ContentStoreLatency records content store call latency by operation.
	ContentStoreLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "techporium_content_store_latency_seconds",
		Help:    "Content store call latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	// PageCacheLookups counts detail page cache lookups by result
	// (hit, stale, revalidated, miss, not_found).
	PageCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "techporium_page_cache_lookups_total",
		Help: "Total number of rendered page cache lookups",
	}, []string{"result"})

	// CommentSubmissions counts comment submissions by outcome
	// (accepted, rejected, failed).
	CommentSubmissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "techporium_comment_submissions_total",
		Help: "Total number of comment submissions",
	}, []string{"outcome"})

	// PageCacheErrors counts failed page cache commands by driver and command.
	PageCacheErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "techporium_page_cache_errors_total",
		Help: "Total number of failed page cache commands",
	}, []string{"driver", "command"})
)

// TrackContentStore returns a function that records the latency and outcome
// of a content store call when called with the call's error.
func TrackContentStore(operation string) func(err error) {
	start := time.Now()
	return func(err error) {
		ContentStoreLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		ContentStoreRequests.WithLabelValues(operation, outcome).Inc()
	}
}
