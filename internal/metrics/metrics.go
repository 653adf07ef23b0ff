// ABOUTME: Prometheus counters for bot activity.
// ABOUTME: Counts inbound updates, gate outcomes, and publish results.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// BotMetrics holds the bot's Prometheus collectors.
// A nil *BotMetrics is valid and records nothing.
type BotMetrics struct {
	Updates         *prometheus.CounterVec
	GateOutcomes    *prometheus.CounterVec
	PublishResults  *prometheus.CounterVec
	HandlerFailures prometheus.Counter
}

// NewBotMetrics creates the collectors and registers them with reg.
func NewBotMetrics(reg prometheus.Registerer) *BotMetrics {
	m := &BotMetrics{
		Updates: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "postgate_updates_total",
				Help: "Inbound Telegram updates by kind",
			},
			[]string{"kind"},
		),
		GateOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "postgate_gate_outcomes_total",
				Help: "File requests by gate outcome",
			},
			[]string{"outcome"},
		),
		PublishResults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "postgate_publish_results_total",
				Help: "Publish attempts by result",
			},
			[]string{"result"},
		),
		HandlerFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "postgate_handler_failures_total",
				Help: "Update handlers that ended in an error or panic",
			},
		),
	}
	reg.MustRegister(m.Updates, m.GateOutcomes, m.PublishResults, m.HandlerFailures)
	return m
}

// IncUpdate counts an inbound update of the given kind.
func (m *BotMetrics) IncUpdate(kind string) {
	if m == nil || m.Updates == nil {
		return
	}
	m.Updates.WithLabelValues(kind).Inc()
}

// IncGate counts a file request by gate outcome.
func (m *BotMetrics) IncGate(outcome string) {
	if m == nil || m.GateOutcomes == nil {
		return
	}
	m.GateOutcomes.WithLabelValues(outcome).Inc()
}

// IncPublish counts a publish attempt by result.
func (m *BotMetrics) IncPublish(result string) {
	if m == nil || m.PublishResults == nil {
		return
	}
	m.PublishResults.WithLabelValues(result).Inc()
}

// IncFailure counts a handler that failed or panicked.
func (m *BotMetrics) IncFailure() {
	if m == nil || m.HandlerFailures == nil {
		return
	}
	m.HandlerFailures.Inc()
}
