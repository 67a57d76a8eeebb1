package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts HTTP requests by method, route and status code.
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loan_service_http_requests_total",
		Help: "Total number of HTTP requests processed.",
	}, []string{"method", "path", "status"})

	// RequestDuration observes request latency by method and route.
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "loan_service_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	// SchedulesComputed counts amortization schedules built by the engine.
	SchedulesComputed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "loan_service_schedules_computed_total",
		Help: "Total number of amortization schedules computed.",
	})

	// ScheduleCacheHits counts schedules served from the cache.
	ScheduleCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "loan_service_schedule_cache_hits_total",
		Help: "Total number of schedules served from the cache.",
	})
)
