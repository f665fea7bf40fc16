package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingestion
	EventsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_events_total",
			Help: "Total number of events received by /api/track",
		},
		[]string{"result"}, // "processed", "failed"
	)

	IngestBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ingest_batch_size",
			Help:    "Number of events per ingestion request",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250, 500},
		},
	)

	IngestBatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ingest_batch_duration_seconds",
			Help:    "Time spent processing one ingestion request",
			Buckets: prometheus.DefBuckets,
		},
	)

	IngestBatchErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ingest_batch_errors_total",
			Help: "Ingestion requests aborted by an infrastructure failure",
		},
	)

	// Integration resolver cache
	IntegrationCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "integration_cache_hits_total",
			Help: "Integration lookups answered from the cache",
		},
	)

	IntegrationCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "integration_cache_misses_total",
			Help: "Integration lookups that went to the store",
		},
	)

	IntegrationCacheSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "integration_cache_entries",
			Help: "Current number of cached integrations",
		},
	)

	// Insight generation
	InsightGenerations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insight_generations_total",
			Help: "Insight generation runs",
		},
		[]string{"kind", "outcome"}, // kind: "insights", "summary"
	)

	InsightsWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "insights_written_total",
			Help: "Insights persisted across all snapshots",
		},
	)

	// Groq
	GroqRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "groq_request_duration_seconds",
			Help:    "Groq chat completion latency",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 60},
		},
		[]string{"operation", "status"},
	)

	GroqCircuitState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "groq_circuit_state",
			Help: "Groq circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)

	// Mirror
	MirrorEvents = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mirror_events",
			Help: "Events currently held by the local mirror",
		},
	)

	MirrorSaves = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mirror_saves_total",
			Help: "Mirror flushes to the durable backend",
		},
		[]string{"outcome"},
	)

	// HTTP
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)
)

// RecordIngestBatch records the outcome of one /api/track request
func RecordIngestBatch(processed, failed int, duration time.Duration, err error) {
	IngestBatchDuration.Observe(duration.Seconds())
	if err != nil {
		IngestBatchErrors.Inc()
		return
	}
	IngestBatchSize.Observe(float64(processed + failed))
	EventsIngested.WithLabelValues("processed").Add(float64(processed))
	EventsIngested.WithLabelValues("failed").Add(float64(failed))
}

// RecordGeneration records an insight or summary run
func RecordGeneration(kind string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	InsightGenerations.WithLabelValues(kind, outcome).Inc()
}

// RecordGroqRequest records one call to the completion API
func RecordGroqRequest(operation string, duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	GroqRequestDuration.WithLabelValues(operation, status).Observe(duration.Seconds())
}

// RecordMirrorSave records a mirror flush
func RecordMirrorSave(events int, err error) {
	if err != nil {
		MirrorSaves.WithLabelValues("error").Inc()
		return
	}
	MirrorSaves.WithLabelValues("success").Inc()
	MirrorEvents.Set(float64(events))
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
