// Package observability exposes conversation and call counters to prometheus.
package observability

import (
	"campus-chat/contract"
	"campus-chat/domain"
	"campus-chat/domain/event"
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ contract.EventSink = (*Metrics)(nil)

// Metrics is a permanent sink: it sees every domain event.
// It owns its registry so several instances can live in one process.
type Metrics struct {
	registry        *prometheus.Registry
	threadsStarted  prometheus.Counter
	messages        prometheus.Counter
	censored        prometheus.Counter
	signalsDropped  *prometheus.CounterVec
	callTransitions *prometheus.CounterVec
	callsActive     prometheus.Gauge
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		threadsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "threads_started_total",
			Help: "Conversation threads created.",
		}),
		messages: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "messages_appended_total",
			Help: "Messages appended to the message log.",
		}),
		censored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "messages_censored_total",
			Help: "Messages rewritten by moderation before append.",
		}),
		signalsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signals_dropped_total",
			Help: "Call signals dropped by the signaling hub.",
		}, []string{"reason"}),
		callTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "call_transitions_total",
			Help: "Call state transitions by target state.",
		}, []string{"to"}),
		callsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "calls_active",
			Help: "Call engines currently in the active state.",
		}),
	}
	m.registry.MustRegister(m.threadsStarted, m.messages, m.censored,
		m.signalsDropped, m.callTransitions, m.callsActive)
	return m
}

func (m *Metrics) Consume(_ context.Context, e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.ThreadStarted:
		m.threadsStarted.Inc()
	case event.MessageAppended:
		m.messages.Inc()
	case event.MessageCensored:
		m.censored.Inc()
	case event.SignalDropped:
		m.signalsDropped.WithLabelValues(evt.Reason).Inc()
	case event.CallTransitioned:
		m.callTransitions.WithLabelValues(string(evt.To)).Inc()
		if evt.To == domain.CallActive {
			m.callsActive.Inc()
		}
		if evt.From == domain.CallActive {
			m.callsActive.Dec()
		}
	}
	return nil
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
