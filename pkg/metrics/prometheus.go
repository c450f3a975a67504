package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	scansTotal    *prometheus.CounterVec
	signalsTotal  *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	cycleDuration prometheus.Histogram
	lastPrice     *prometheus.GaugeVec
	regime        *prometheus.GaugeVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		scansTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradewolf_scans_total",
				Help: "Total number of market scans by kind (full, breakout)",
			},
			[]string{"kind"},
		),
		signalsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradewolf_signals_total",
				Help: "Total number of emitted trade signals by action",
			},
			[]string{"action"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradewolf_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		cycleDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "tradewolf_cycle_duration_seconds",
				Help:    "Duration of one control-loop cycle in seconds",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
			},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tradewolf_last_price",
				Help: "Last observed price for a symbol",
			},
			[]string{"symbol"},
		),
		regime: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tradewolf_market_regime",
				Help: "Current market regime (1 for active, 0 otherwise)",
			},
			[]string{"regime"},
		),
	}
}

// RecordScan records a completed scan of the given kind.
func (r *Recorder) RecordScan(kind string) {
	r.scansTotal.WithLabelValues(kind).Inc()
}

// RecordSignal records an emitted signal.
func (r *Recorder) RecordSignal(action string) {
	r.signalsTotal.WithLabelValues(action).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordCycleDuration records one control-loop cycle duration.
func (r *Recorder) RecordCycleDuration(seconds float64) {
	r.cycleDuration.Observe(seconds)
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordRegime marks the active regime gauge.
func (r *Recorder) RecordRegime(regime string) {
	for _, known := range []string{"QUIET", "NORMAL", "VOLATILE", "EXTREME"} {
		v := 0.0
		if known == regime {
			v = 1.0
		}
		r.regime.WithLabelValues(known).Set(v)
	}
}
