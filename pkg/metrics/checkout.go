package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records settlement outcomes and gateway traffic.
type CheckoutMetrics struct {
	outcomes      *prometheus.CounterVec
	compensations *prometheus.CounterVec
	gatewayCalls  *prometheus.CounterVec
	gatewayTime   *prometheus.HistogramVec
	webhookEvents *prometheus.CounterVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_outcomes_total",
		Help: "Terminal checkout outcomes by state.",
	}, []string{"outcome"})
	compensations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_compensations_total",
		Help: "Compensating gift-card credits by result.",
	}, []string{"result"})
	gatewayCalls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "giftcard_gateway_calls_total",
		Help: "Outbound gift-card service calls by operation and result.",
	}, []string{"operation", "result"})
	gatewayTime := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "giftcard_gateway_duration_seconds",
		Help:    "Duration of gift-card service calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	webhookEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "giftcard_webhook_events_total",
		Help: "Received gift-card webhook events by type and result.",
	}, []string{"event_type", "result"})
	reg.MustRegister(outcomes, compensations, gatewayCalls, gatewayTime, webhookEvents)
	return &CheckoutMetrics{
		outcomes:      outcomes,
		compensations: compensations,
		gatewayCalls:  gatewayCalls,
		gatewayTime:   gatewayTime,
		webhookEvents: webhookEvents,
	}
}

// IncOutcome increments the counter for a terminal checkout state.
func (m *CheckoutMetrics) IncOutcome(outcome string) {
	if m == nil || m.outcomes == nil {
		return
	}
	m.outcomes.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncCompensation records a compensating credit attempt result.
func (m *CheckoutMetrics) IncCompensation(result string) {
	if m == nil || m.compensations == nil {
		return
	}
	m.compensations.WithLabelValues(normalizeLabel(result)).Inc()
}

// IncGatewayCall records a gateway call result.
func (m *CheckoutMetrics) IncGatewayCall(operation, result string) {
	if m == nil || m.gatewayCalls == nil {
		return
	}
	m.gatewayCalls.WithLabelValues(normalizeLabel(operation), normalizeLabel(result)).Inc()
}

// ObserveGatewayDuration records the duration of a gateway call.
func (m *CheckoutMetrics) ObserveGatewayDuration(operation string, duration time.Duration) {
	if m == nil || m.gatewayTime == nil {
		return
	}
	m.gatewayTime.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}

// IncWebhookEvent records a received webhook event.
func (m *CheckoutMetrics) IncWebhookEvent(eventType, result string) {
	if m == nil || m.webhookEvents == nil {
		return
	}
	m.webhookEvents.WithLabelValues(normalizeLabel(eventType), normalizeLabel(result)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
