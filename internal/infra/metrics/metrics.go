package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_requests_total",
			Help: "Requests sent to the press-release API, by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"},
	)

	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_request_duration_seconds",
			Help:    "Duration of press-release API calls including retries",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	UpstreamRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_retries_total",
			Help: "Retry attempts against the press-release API",
		},
		[]string{"endpoint"},
	)

	CircuitBreakerOpen = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "upstream_circuit_open",
			Help: "1 while the upstream circuit breaker is open",
		},
		[]string{"name"},
	)

	FetchAllTruncated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fetch_all_truncated_total",
			Help: "Lookup aggregations stopped by the page cap before the last page",
		},
		[]string{"endpoint"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "query_cache_lookups_total",
			Help: "Query cache lookups by keyspace and result (hit, miss, stale, error)",
		},
		[]string{"keyspace", "result"},
	)

	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "query_cache_entries",
			Help: "Entries currently held by the query cache",
		},
	)

	CacheInvalidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "query_cache_invalidations_total",
			Help: "Cache entries removed by explicit invalidation",
		},
		[]string{"reason"},
	)

	ArchiveUpserts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "archive_announcements_total",
			Help: "Announcements written to the archive, by status (created, changed, unchanged)",
		},
		[]string{"status"},
	)

	ArchiveFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "archive_fallbacks_total",
			Help: "Detail views served from the archive because the API was unavailable",
		},
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Announcement events published to Kafka",
		},
		[]string{"type", "status"},
	)

	EventsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_consumed_total",
			Help: "Invalidation events consumed, by type and status",
		},
		[]string{"type", "status"},
	)

	DLQMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dlq_messages_published_total",
			Help: "Total number of messages published to DLQ",
		},
		[]string{"source"},
	)

	DetailSectionsMissing = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "detail_sections_missing_total",
			Help: "Detail sections rendered with the not-available fallback",
		},
		[]string{"kind"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests served, by route and status code",
		},
		[]string{"route", "code"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of served HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
)
