package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PagesTotal counts terminal page classifications.
	PagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawl_pages_total",
			Help: "Total pages processed, by terminal classification.",
		},
		[]string{"status"}, // success, duplicate, failed
	)

	// FetchAttemptsTotal counts individual extraction attempts.
	FetchAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawl_fetch_attempts_total",
			Help: "Total extraction attempts, by result.",
		},
		[]string{"result"}, // success, retriable_error, terminal_error
	)

	// FetchDuration observes how long each extraction attempt took.
	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crawl_fetch_duration_seconds",
			Help:    "Duration of extraction attempts.",
			Buckets: []float64{1, 5, 10, 15, 30, 60, 120},
		},
		[]string{"domain"},
	)

	// DelaySeconds observes the jittered inter-request delays.
	DelaySeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "crawl_delay_seconds",
			Help:    "Jittered delay applied before each fetch.",
			Buckets: prometheus.LinearBuckets(0, 1, 12),
		},
	)

	// TargetsRemaining tracks how many targets are still queued.
	TargetsRemaining = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "crawl_targets_remaining",
			Help: "Number of targets not yet processed in the current run.",
		},
	)

	// HTTPRequestsTotal counts requests served by the status listener.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes status listener request latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
