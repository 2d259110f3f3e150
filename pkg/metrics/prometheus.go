package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	cyclesTotal  *prometheus.CounterVec
	taskDuration *prometheus.HistogramVec
	taskErrors   *prometheus.CounterVec
	lastPrice    *prometheus.GaugeVec
	riskScore    prometheus.Gauge
	vix          prometheus.Gauge
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		cyclesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradepulse_cycles_total",
				Help: "Total number of analysis cycles by final status",
			},
			[]string{"status"},
		),
		taskDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tradepulse_task_duration_seconds",
				Help:    "Duration of individual analysis tasks",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"task"},
		),
		taskErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradepulse_task_errors_total",
				Help: "Total number of failed task invocations",
			},
			[]string{"task"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tradepulse_last_price",
				Help: "Last traded price per index",
			},
			[]string{"index"},
		),
		riskScore: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "tradepulse_risk_score",
				Help: "Composite risk score of the latest cycle (0-100)",
			},
		),
		vix: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "tradepulse_vix",
				Help: "Latest observed volatility index level",
			},
		),
	}
}

// RecordCycle records a completed cycle and its duration status.
func (r *Recorder) RecordCycle(status string) {
	r.cyclesTotal.WithLabelValues(status).Inc()
}

// RecordTask records one task invocation.
func (r *Recorder) RecordTask(task, status string, seconds float64) {
	r.taskDuration.WithLabelValues(task).Observe(seconds)
	if status == "error" {
		r.taskErrors.WithLabelValues(task).Inc()
	}
}

// RecordLastPrice records the last traded price for an index.
func (r *Recorder) RecordLastPrice(index string, price float64) {
	r.lastPrice.WithLabelValues(index).Set(price)
}

// RecordRisk records the composite risk score and VIX of the latest cycle.
func (r *Recorder) RecordRisk(score float64, vix float64) {
	r.riskScore.Set(score)
	r.vix.Set(vix)
}
