package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain repository.Metrics using Prometheus.
type Recorder struct {
	decisions *prometheus.CounterVec
	trades    *prometheus.CounterVec
	errors    *prometheus.CounterVec
	lastPrice *prometheus.GaugeVec
	latency   *prometheus.HistogramVec
	cash      prometheus.Gauge
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		decisions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "boardroom_decisions_total",
				Help: "Gate decisions by outcome",
			},
			[]string{"outcome"},
		),
		trades: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "boardroom_trades_total",
				Help: "Paper trades by action and symbol",
			},
			[]string{"action", "symbol"},
		),
		errors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "boardroom_errors_total",
				Help: "Errors encountered by kind",
			},
			[]string{"kind"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "boardroom_last_price",
				Help: "Last observed price for a symbol",
			},
			[]string{"symbol"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "boardroom_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		cash: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "boardroom_cash_balance",
				Help: "Current paper cash balance",
			},
		),
	}
}

// RecordDecision records one gate decision outcome.
func (r *Recorder) RecordDecision(outcome string) {
	r.decisions.WithLabelValues(outcome).Inc()
}

// RecordTrade records one executed paper trade.
func (r *Recorder) RecordTrade(action, symbol string) {
	r.trades.WithLabelValues(action, symbol).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errors.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordCash records the current cash balance.
func (r *Recorder) RecordCash(balance float64) {
	r.cash.Set(balance)
}
