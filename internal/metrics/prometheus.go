package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains the Prometheus metrics of the tutor service
type Metrics struct {
	// Pipeline stage metrics
	StageDuration *prometheus.HistogramVec
	StageFailures *prometheus.CounterVec

	// Voice exchange metrics
	ExchangesCompleted prometheus.Counter
	ExchangesFailed    prometheus.Counter
	TranscoderSkipped  prometheus.Counter
	UploadBytes        prometheus.Histogram

	// Translation metrics
	Translations       prometheus.Counter
	TranslationFailure *prometheus.CounterVec

	// Session metrics
	ActiveSessions prometheus.Gauge
}

// NewMetrics creates the metrics and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		StageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tutor_stage_duration_seconds",
			Help:    "Time spent in each voice pipeline stage",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"stage"}),
		StageFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tutor_stage_failures_total",
			Help: "Total number of failed voice pipeline stages",
		}, []string{"stage", "timeout"}),

		ExchangesCompleted: f.NewCounter(prometheus.CounterOpts{
			Name: "tutor_exchanges_completed_total",
			Help: "Total number of completed voice exchanges",
		}),
		ExchangesFailed: f.NewCounter(prometheus.CounterOpts{
			Name: "tutor_exchanges_failed_total",
			Help: "Total number of voice exchanges aborted by an error",
		}),
		TranscoderSkipped: f.NewCounter(prometheus.CounterOpts{
			Name: "tutor_transcoder_skipped_total",
			Help: "Voice exchanges that passed the original upload to transcription",
		}),
		UploadBytes: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "tutor_upload_bytes",
			Help:    "Size of uploaded recordings",
			Buckets: prometheus.ExponentialBuckets(4096, 4, 8),
		}),

		Translations: f.NewCounter(prometheus.CounterOpts{
			Name: "tutor_translations_total",
			Help: "Total number of stored translations",
		}),
		TranslationFailure: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tutor_translation_failures_total",
			Help: "Total number of failed translations by cause",
		}, []string{"cause"}),

		ActiveSessions: f.NewGauge(prometheus.GaugeOpts{
			Name: "tutor_active_sessions",
			Help: "Current number of conversation sessions",
		}),
	}
}

// ObserveStage records the duration of a stage and, when err is not nil, a failure
func (m *Metrics) ObserveStage(stage string, d time.Duration, err error, timeout bool) {
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
	if err == nil {
		return
	}
	t := "false"
	if timeout {
		t = "true"
	}
	m.StageFailures.WithLabelValues(stage, t).Inc()
}
