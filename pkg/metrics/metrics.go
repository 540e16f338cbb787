package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PipelineRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeline_runs_total",
		Help: "Total number of report pipeline runs",
	}, []string{"status"})

	PipelineDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pipeline_duration_seconds",
		Help:    "Duration of a full report pipeline run",
		Buckets: prometheus.DefBuckets,
	})

	RowsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sales_rows_processed_total",
		Help: "Total number of sales rows aggregated",
	})

	UploadedBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "uploaded_bytes_total",
		Help: "Total number of raw CSV bytes uploaded",
	})

	StorageOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storage_operations_total",
		Help: "Total number of object storage operations",
	}, []string{"operation", "status"})

	StorageOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storage_operation_duration_seconds",
		Help:    "Duration of object storage operations",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total number of cache hits",
	})

	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total number of cache misses",
	})

	DatabaseQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "database_queries_total",
		Help: "Total number of database queries",
	}, []string{"query_type", "status"})

	DatabaseQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "database_query_duration_seconds",
		Help:    "Duration of database queries",
		Buckets: prometheus.DefBuckets,
	}, []string{"query_type"})

	QueueMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "queue_messages_total",
		Help: "Total number of queue messages published or consumed",
	}, []string{"direction", "status"})
)

func RecordCacheHit() {
	CacheHits.Inc()
}

func RecordCacheMiss() {
	CacheMisses.Inc()
}

func RecordDatabaseQuery(queryType, status string, duration float64) {
	DatabaseQueries.WithLabelValues(queryType, status).Inc()
	DatabaseQueryDuration.WithLabelValues(queryType).Observe(duration)
}

func RecordStorageOperation(operation, status string) {
	StorageOperations.WithLabelValues(operation, status).Inc()
}

func RecordPipelineRun(status string, rows int) {
	PipelineRuns.WithLabelValues(status).Inc()
	RowsProcessed.Add(float64(rows))
}

func RecordQueueMessage(direction, status string) {
	QueueMessages.WithLabelValues(direction, status).Inc()
}

type Timer struct {
	start time.Time
}

func NewTimer() *Timer {
	return &Timer{
		start: time.Now(),
	}
}

func (t *Timer) ObserveDuration(observer prometheus.Observer) {
	observer.Observe(time.Since(t.start).Seconds())
}

func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}
