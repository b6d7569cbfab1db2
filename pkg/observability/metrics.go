package observability

import (
	"context"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors of the conversation loop.
type Metrics struct {
	Rounds       prometheus.Counter
	ToolCalls    *prometheus.CounterVec
	ToolDuration *prometheus.HistogramVec
	Turns        *prometheus.CounterVec
	TurnRounds   prometheus.Histogram
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Rounds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "canopy_gateway_rounds_total",
			Help: "Total number of model gateway calls",
		}),
		ToolCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "canopy_tool_calls_total",
				Help: "Total number of tool invocations",
			},
			[]string{"tool", "outcome"},
		),
		ToolDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "canopy_tool_duration_seconds",
				Help:    "Duration of tool executions",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
			[]string{"tool"},
		),
		Turns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "canopy_turns_total",
				Help: "Total number of completed turns by status",
			},
			[]string{"status"},
		),
		TurnRounds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "canopy_turn_rounds",
			Help:    "Rounds used per turn",
			Buckets: prometheus.LinearBuckets(1, 1, 5),
		}),
	}
	reg.MustRegister(m.Rounds, m.ToolCalls, m.ToolDuration, m.Turns, m.TurnRounds)
	return m
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRoundStart: func(context.Context, *domain.RoundEvent) {
			m.Rounds.Inc()
		},
		OnToolReturn: func(_ context.Context, e *domain.ToolEvent) {
			outcome := "ok"
			if e.IsError {
				outcome = "error"
			}
			m.ToolCalls.WithLabelValues(e.ToolName, outcome).Inc()
			m.ToolDuration.WithLabelValues(e.ToolName).Observe(e.Duration.Seconds())
		},
		OnTurnEnd: func(_ context.Context, e *domain.TurnEvent) {
			m.Turns.WithLabelValues(string(e.Status)).Inc()
			m.TurnRounds.Observe(float64(e.Rounds))
		},
	}
}
