package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SearchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "explorer_searches_total",
		Help: "Processed queries by search space and outcome (ok, warning, error)",
	}, []string{"facet", "outcome"})

	FailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "explorer_failures_total",
		Help: "Failed queries by error kind",
	}, []string{"kind"})

	CacheLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "explorer_cache_lookups_total",
		Help: "Response cache lookups by result (hit, miss, error)",
	}, []string{"result"})

	FetchLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "explorer_openlibrary_fetch_latency_seconds",
		Help:    "Open Library search request latency",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	})

	RateLimitHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "explorer_openlibrary_rate_limit_hits_total",
		Help: "Open Library HTTP 429 (rate limit) responses",
	})

	HttpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "explorer_http_requests_total",
		Help: "Total number of HTTP requests to the dashboard",
	}, []string{"method", "path", "status"})

	HttpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "explorer_http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"path"})

	StatsEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "explorer_stats_events_total",
		Help: "Search events handled by the stats worker by result (received, skipped, recorded, failed, invalid)",
	}, []string{"result"})

	StatsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "explorer_stats_in_flight",
		Help: "Search events currently being recorded",
	})

	CommitErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "explorer_stats_commit_errors_total",
		Help: "Kafka CommitMessages failures",
	})

	CommitPending = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "explorer_stats_commit_pending",
		Help: "Messages buffered by the commit coordinator awaiting commit",
	})

	CommitLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "explorer_stats_commit_latency_seconds",
		Help:    "Kafka commit latency",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	})
)
