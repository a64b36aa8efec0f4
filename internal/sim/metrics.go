package sim

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	deliveryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "factory_sim_delivery_total",
			Help: "Records handed to sinks, by outcome",
		},
		[]string{"sink", "result"}, // success, failure or dropped
	)

	deliveryAttempts = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "factory_sim_delivery_attempts",
			Help:    "Attempts needed per record or batch on remote sinks",
			Buckets: []float64{1, 2, 3, 5, 8},
		},
		[]string{"sink"},
	)

	recordsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "factory_sim_records_generated_total",
			Help: "Telemetry records generated, by machine status",
		},
		[]string{"status"},
	)

	simClockMinutes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "factory_sim_clock_minutes",
			Help: "Current simulated time of the running simulation",
		},
	)

	dispatchQueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "factory_sim_dispatch_queue_depth",
			Help: "Records waiting in async delivery queues",
		},
		[]string{"sink"},
	)
)
