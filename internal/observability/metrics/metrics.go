package metrics

import "github.com/prometheus/client_golang/prometheus"

// WebhookMetrics exposes counters/histograms for inbound WhatsApp processing.
type WebhookMetrics struct {
	inboundTotal   *prometheus.CounterVec
	repliesTotal   *prometheus.CounterVec
	pendingTotal   *prometheus.CounterVec
	webhookLatency *prometheus.HistogramVec
}

func NewWebhookMetrics(reg prometheus.Registerer) *WebhookMetrics {
	m := &WebhookMetrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "webhook",
			Name:      "inbound_total",
			Help:      "Total inbound WhatsApp messages by outcome",
		}, []string{"outcome", "intent"}),
		repliesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "webhook",
			Name:      "replies_total",
			Help:      "Total auto-replies sent",
		}, []string{"kind", "status"}),
		pendingTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "webhook",
			Name:      "pending_requests_total",
			Help:      "Total pending requests escalated to staff",
		}, []string{"request_type"}),
		webhookLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clinic",
			Subsystem: "webhook",
			Name:      "latency_seconds",
			Help:      "Latency of inbound webhook processing",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.inboundTotal, m.repliesTotal, m.pendingTotal, m.webhookLatency)
	return m
}

func (m *WebhookMetrics) ObserveInbound(outcome, intent string) {
	if m == nil {
		return
	}
	if intent == "" {
		intent = "none"
	}
	m.inboundTotal.WithLabelValues(outcome, intent).Inc()
}

func (m *WebhookMetrics) ObserveReply(kind string, err error) {
	if m == nil {
		return
	}
	status := "sent"
	if err != nil {
		status = "failed"
	}
	m.repliesTotal.WithLabelValues(kind, status).Inc()
}

func (m *WebhookMetrics) ObservePendingRequest(requestType string) {
	if m == nil {
		return
	}
	m.pendingTotal.WithLabelValues(requestType).Inc()
}

func (m *WebhookMetrics) ObserveLatency(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.webhookLatency.WithLabelValues(outcome).Observe(seconds)
}
