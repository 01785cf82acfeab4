// Package metrics provides Prometheus metrics for the CLI's long-lived
// modes (streaming sessions with the status server enabled).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "transcribe_cli"

// Metrics holds all Prometheus metrics.
type Metrics struct {
	// Capture metrics
	CaptureChunks  prometheus.Counter
	CaptureBytes   prometheus.Counter
	CaptureDropped prometheus.Counter

	// Session metrics
	SessionsTotal   prometheus.Counter
	SessionsActive  prometheus.Gauge
	SessionDuration prometheus.Histogram

	// Segment metrics
	SegmentsCompleted prometheus.Counter
	SegmentsDropped   *prometheus.CounterVec

	// Transcript metrics
	TranscriptsPartial prometheus.Counter
	TranscriptsFinal   prometheus.Counter

	// STT metrics
	STTErrors *prometheus.CounterVec

	// Kafka publish metrics
	KafkaPublishTotal   *prometheus.CounterVec
	KafkaPublishErrors  *prometheus.CounterVec
	KafkaPublishLatency *prometheus.HistogramVec

	// Batch job metrics
	BatchJobsStarted   prometheus.Counter
	BatchJobsCompleted prometheus.Counter
	BatchJobsFailed    prometheus.Counter
	BatchJobDuration   prometheus.Histogram
}

// Default is the global metrics instance.
var Default = New()

// New creates and registers all metrics.
func New() *Metrics {
	return &Metrics{
		CaptureChunks: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capture_chunks_total",
			Help:      "Total audio chunks captured from the input device",
		}),
		CaptureBytes: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capture_bytes_total",
			Help:      "Total audio bytes captured from the input device",
		}),
		CaptureDropped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capture_chunks_dropped_total",
			Help:      "Chunks dropped because the consumer lagged behind the device",
		}),

		SessionsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Total streaming transcription sessions started",
		}),
		SessionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Currently active streaming sessions",
		}),
		SessionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_duration_seconds",
			Help:      "Duration of streaming sessions in seconds",
			Buckets:   []float64{1, 5, 15, 60, 300, 900, 3600, 14400},
		}),

		SegmentsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segments_completed_total",
			Help:      "Segments completed with a final transcript",
		}),
		SegmentsDropped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segments_dropped_total",
			Help:      "Segments dropped without a final transcript",
		}, []string{"reason"}),

		TranscriptsPartial: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcripts_partial_total",
			Help:      "Partial transcripts received",
		}),
		TranscriptsFinal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcripts_final_total",
			Help:      "Final transcripts received",
		}),

		STTErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stt_errors_total",
			Help:      "STT provider stream errors",
		}, []string{"provider"}),

		KafkaPublishTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_total",
			Help:      "Kafka messages published",
		}, []string{"topic"}),
		KafkaPublishErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_errors_total",
			Help:      "Kafka publish errors",
		}, []string{"topic"}),
		KafkaPublishLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kafka_publish_latency_seconds",
			Help:      "Kafka publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"topic"}),

		BatchJobsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_jobs_started_total",
			Help:      "Batch transcription jobs started",
		}),
		BatchJobsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_jobs_completed_total",
			Help:      "Batch transcription jobs completed",
		}),
		BatchJobsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_jobs_failed_total",
			Help:      "Batch transcription jobs failed",
		}),
		BatchJobDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_job_duration_seconds",
			Help:      "End-to-end batch job duration in seconds",
			Buckets:   []float64{5, 15, 30, 60, 120, 300, 900},
		}),
	}
}

// RecordCapture records one captured chunk.
func (m *Metrics) RecordCapture(bytes int) {
	m.CaptureChunks.Inc()
	m.CaptureBytes.Add(float64(bytes))
}

// RecordCaptureDrop records a chunk dropped under consumer lag.
func (m *Metrics) RecordCaptureDrop() {
	m.CaptureDropped.Inc()
}

// RecordSessionStart records a streaming session starting.
func (m *Metrics) RecordSessionStart() {
	m.SessionsTotal.Inc()
	m.SessionsActive.Inc()
}

// RecordSessionEnd records a streaming session ending.
func (m *Metrics) RecordSessionEnd(durationSeconds float64) {
	m.SessionsActive.Dec()
	m.SessionDuration.Observe(durationSeconds)
}

// RecordSegmentCompleted records a segment that emitted its final.
func (m *Metrics) RecordSegmentCompleted() {
	m.SegmentsCompleted.Inc()
}

// RecordSegmentDropped records a dropped segment.
func (m *Metrics) RecordSegmentDropped(reason string) {
	m.SegmentsDropped.WithLabelValues(reason).Inc()
}

// RecordPartial records a partial transcript.
func (m *Metrics) RecordPartial() {
	m.TranscriptsPartial.Inc()
}

// RecordFinal records a final transcript.
func (m *Metrics) RecordFinal() {
	m.TranscriptsFinal.Inc()
}

// RecordSTTError records a provider stream error.
func (m *Metrics) RecordSTTError(provider string) {
	m.STTErrors.WithLabelValues(provider).Inc()
}

// RecordKafkaPublish records a Kafka publish attempt.
func (m *Metrics) RecordKafkaPublish(topic string, err error, latencySeconds float64) {
	m.KafkaPublishTotal.WithLabelValues(topic).Inc()
	m.KafkaPublishLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic).Inc()
	}
}

// RecordBatchJobStart records a batch job being submitted.
func (m *Metrics) RecordBatchJobStart() {
	m.BatchJobsStarted.Inc()
}

// RecordBatchJob records a batch job outcome.
func (m *Metrics) RecordBatchJob(succeeded bool, durationSeconds float64) {
	m.BatchJobDuration.Observe(durationSeconds)
	if succeeded {
		m.BatchJobsCompleted.Inc()
	} else {
		m.BatchJobsFailed.Inc()
	}
}
