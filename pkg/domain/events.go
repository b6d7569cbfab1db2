package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventRoundStart EventType = "round_start"
	EventToolCall   EventType = "tool_call"
	EventToolReturn EventType = "tool_return"
	EventTurnEnd    EventType = "turn_end"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id,omitempty"`
}

// RoundEvent is emitted before each call to the model gateway.
type RoundEvent struct {
	EventBase
	Round int `json:"round"`
}

// ToolEvent represents one tool invocation.
type ToolEvent struct {
	EventBase
	InvocationID string        `json:"invocation_id"`
	ToolName     string        `json:"tool_name"`
	Arguments    string        `json:"arguments,omitempty"`
	Output       string        `json:"output,omitempty"`
	IsError      bool          `json:"is_error,omitempty"`
	Duration     time.Duration `json:"duration,omitempty"`
}

// TurnEvent is emitted once a turn completes (successfully or at the round cap).
type TurnEvent struct {
	EventBase
	Status      TurnStatus `json:"status"`
	Rounds      int        `json:"rounds"`
	Invocations int        `json:"invocations"`
}

// LifecycleHooks defines callbacks for conversation observability.
// Tool hooks may be called concurrently within a round.
type LifecycleHooks struct {
	OnRoundStart func(context.Context, *RoundEvent)
	OnToolCall   func(context.Context, *ToolEvent)
	OnToolReturn func(context.Context, *ToolEvent)
	OnTurnEnd    func(context.Context, *TurnEvent)
}

type sessionKey struct{}

// ContextWithSession tags ctx with the session a turn belongs to, so events raised
// below the conversation layer can be attributed.
func ContextWithSession(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionKey{}, sessionID)
}

// SessionFromContext returns the session tagged by ContextWithSession, or "".
func SessionFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}
