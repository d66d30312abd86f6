package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	signals     *prometheus.CounterVec
	rejections  *prometheus.CounterVec
	scores      prometheus.Histogram
	dispatched  *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
	latency     *prometheus.HistogramVec
}

// New creates a recorder registered with reg; nil uses the default registry.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		signals: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finsignal_signals_total",
				Help: "Total number of emitted signals",
			},
			[]string{"direction", "tier"},
		),
		rejections: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finsignal_rejections_total",
				Help: "Analyses that produced no signal, by reason",
			},
			[]string{"reason"},
		),
		scores: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "finsignal_signal_score",
			Help:    "Final opportunity score of emitted signals",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		}),
		dispatched: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finsignal_signals_dispatched_total",
				Help: "Signals sent to a backend",
			},
			[]string{"backend"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finsignal_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "finsignal_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordSignal counts an emitted signal and observes its score.
func (r *Recorder) RecordSignal(direction, tier string, score float64) {
	r.signals.WithLabelValues(direction, tier).Inc()
	r.scores.Observe(score)
}

func (r *Recorder) RecordRejection(reason string) {
	r.rejections.WithLabelValues(reason).Inc()
}

// RecordDispatch records a signal sent to a backend.
func (r *Recorder) RecordDispatch(backend string) {
	r.dispatched.WithLabelValues(backend).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
