package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	signalsLabeled *prometheus.CounterVec
	labelsSkipped  *prometheus.CounterVec
	predictions    *prometheus.CounterVec
	onlineUpdates  prometheus.Counter
	trainingRuns   *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	latency        *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		signalsLabeled: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "newsalpha_signals_labeled_total",
				Help: "Total number of trading signals labeled with outcomes",
			},
			[]string{"symbol"},
		),
		labelsSkipped: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "newsalpha_labels_skipped_total",
				Help: "Total number of signals skipped during labeling",
			},
			[]string{"reason"},
		),
		predictions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "newsalpha_predictions_total",
				Help: "Total predictions served, by confidence bucket",
			},
			[]string{"bucket"},
		),
		onlineUpdates: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "newsalpha_online_updates_total",
				Help: "Total single-example online model updates",
			},
		),
		trainingRuns: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "newsalpha_training_runs_total",
				Help: "Total batch training runs, by result",
			},
			[]string{"result"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "newsalpha_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "newsalpha_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordSignalLabeled records one labeled signal.
func (r *Recorder) RecordSignalLabeled(symbol string) {
	r.signalsLabeled.WithLabelValues(symbol).Inc()
}

// RecordLabelSkipped records a signal skipped during labeling.
func (r *Recorder) RecordLabelSkipped(reason string) {
	r.labelsSkipped.WithLabelValues(reason).Inc()
}

// RecordPrediction records a served prediction by confidence bucket.
func (r *Recorder) RecordPrediction(bucket string) {
	r.predictions.WithLabelValues(bucket).Inc()
}

// RecordOnlineUpdate records one feedback-driven weight update.
func (r *Recorder) RecordOnlineUpdate() {
	r.onlineUpdates.Inc()
}

// RecordTrainingRun records the outcome of a batch training run.
func (r *Recorder) RecordTrainingRun(result string) {
	r.trainingRuns.WithLabelValues(result).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
