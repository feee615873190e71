package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	OrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uxr_orders_total",
			Help: "Order pipeline counter by stage and outcome",
		},
		[]string{"stage", "outcome"}, // received|feedback|render|delivery , ok|fallback|failed|skipped
	)

	WebhookEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uxr_webhook_events_total",
			Help: "Inbound payment notifications by event type and handling result",
		},
		[]string{"type", "result"},
	)

	StageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "uxr_stage_duration_seconds",
			Help:    "Wall time spent in each pipeline stage",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"stage"},
	)

	registerOnce sync.Once
)

// MustRegister registers the collectors once; later calls are no-ops.
func MustRegister(r prometheus.Registerer) {
	registerOnce.Do(func() {
		r.MustRegister(
			OrdersTotal,
			WebhookEventsTotal,
			StageDuration,
		)
	})
}
