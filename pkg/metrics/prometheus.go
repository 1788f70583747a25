package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	ticksTotal    prometheus.Counter
	tickDuration  prometheus.Histogram
	spotPrice     *prometheus.GaugeVec
	snapshotsSent *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	latency       *prometheus.HistogramVec
}

// New registers the recorder on the default registry.
func New() *Recorder {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the recorder on reg. Tests pass a fresh registry.
func NewWithRegisterer(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		ticksTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "commodsim_ticks_total",
			Help: "Total number of simulation ticks",
		}),
		tickDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "commodsim_tick_duration_seconds",
			Help:    "Duration of a full spot and curve tick",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),
		spotPrice: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "commodsim_spot_price",
				Help: "Latest simulated spot price per hub",
			},
			[]string{"sector", "hub"},
		),
		snapshotsSent: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "commodsim_snapshots_published_total",
				Help: "Snapshots delivered per sink",
			},
			[]string{"sink"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "commodsim_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "commodsim_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) RecordTick(seconds float64) {
	r.ticksTotal.Inc()
	r.tickDuration.Observe(seconds)
}

func (r *Recorder) RecordSpot(sector, hub string, price float64) {
	r.spotPrice.WithLabelValues(sector, hub).Set(price)
}

func (r *Recorder) RecordSnapshotPublished(sink string) {
	r.snapshotsSent.WithLabelValues(sink).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
