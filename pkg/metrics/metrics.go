package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DeliveriesTotal counts terminal delivery outcomes per channel.
	DeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "opshub_deliveries_total",
			Help: "Terminal outbound delivery outcomes by channel and status.",
		},
		[]string{"channel", "status"},
	)

	// DeliveryRetries counts individual retried attempts per channel.
	DeliveryRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "opshub_delivery_retries_total",
			Help: "Retried outbound attempts by channel.",
		},
		[]string{"channel"},
	)

	// DeliveryDuration observes wall time of the full delivery including retries.
	DeliveryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "opshub_delivery_duration_seconds",
			Help:    "Duration of outbound deliveries including retries.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"channel"},
	)
)

// RecordDelivery records one terminal outcome.
func RecordDelivery(channel, status string, seconds float64) {
	DeliveriesTotal.WithLabelValues(channel, status).Inc()
	DeliveryDuration.WithLabelValues(channel).Observe(seconds)
}
