// Package metrics provides Prometheus metrics collection for MeterGate.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds all Prometheus metrics for MeterGate.
type Collector struct {
	// Quota metrics
	QuotaChecksTotal *prometheus.CounterVec
	UsageCount       *prometheus.CounterVec

	// Inference metrics
	InferenceDuration prometheus.Histogram
	RequestsInFlight  prometheus.Gauge

	// Webhook metrics
	WebhookEventsTotal *prometheus.CounterVec

	// Checkout metrics
	CheckoutsTotal *prometheus.CounterVec
}

// New creates a new metrics collector with all metrics registered.
func New() *Collector {
	return &Collector{
		QuotaChecksTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "metergate",
				Name:      "quota_checks_total",
				Help:      "Total number of quota checks by tier and outcome",
			},
			[]string{"tier", "outcome"},
		),
		UsageCount: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "metergate",
				Name:      "usage_increments_total",
				Help:      "Total number of recorded usage increments",
			},
			[]string{"tier"},
		),
		InferenceDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "metergate",
				Name:      "inference_duration_seconds",
				Help:      "Inference request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
		),
		RequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "metergate",
				Name:      "requests_in_flight",
				Help:      "Number of requests currently being processed",
			},
		),
		WebhookEventsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "metergate",
				Name:      "webhook_events_total",
				Help:      "Total number of billing webhook events by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		CheckoutsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "metergate",
				Name:      "checkouts_total",
				Help:      "Total number of checkout initiations by outcome",
			},
			[]string{"outcome"},
		),
	}
}
