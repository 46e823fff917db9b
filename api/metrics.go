package api

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "cashflow_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	projectionTotal   *prometheus.CounterVec
	projectionLatency *prometheus.HistogramVec
	sessionsGauge     prometheus.Gauge
	exportTotal       *prometheus.CounterVec
)

// InitMetrics registers the API metrics with the default registry.
// Safe to call more than once.
func InitMetrics() {
	registerOnce.Do(func() {
		projectionTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "projection_total",
				Help: "Total projections by result",
			},
			[]string{"result"},
		)
		projectionLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "projection_latency_seconds",
				Help:    "Projection latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		sessionsGauge = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "simulation_sessions",
				Help: "Live simulation sessions",
			},
		)
		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_total",
				Help: "Total projection exports by format and result",
			},
			[]string{"format", "result"},
		)

		prometheus.MustRegister(
			projectionTotal,
			projectionLatency,
			sessionsGauge,
			exportTotal,
		)
	})
}

func resultLabel(err error) string {
	if err != nil {
		return resultError
	}
	return resultSuccess
}

// ObserveProjection records one projection run.
func ObserveProjection(err error, duration time.Duration) {
	result := resultLabel(err)
	if projectionTotal != nil {
		projectionTotal.WithLabelValues(result).Inc()
	}
	if projectionLatency != nil {
		projectionLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// SetSimulationSessions sets the live session gauge.
func SetSimulationSessions(n int) {
	if sessionsGauge != nil {
		sessionsGauge.Set(float64(n))
	}
}

// IncExport counts one export attempt.
func IncExport(format string, err error) {
	if format == "" {
		format = "unknown"
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, resultLabel(err)).Inc()
	}
}
