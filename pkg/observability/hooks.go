package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/canopy/pkg/domain"
)

// LoggingHooks logs every lifecycle event at debug level.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRoundStart: func(ctx context.Context, e *domain.RoundEvent) {
			logger.DebugContext(ctx, "Round started", "session_id", e.SessionID, "round", e.Round)
		},
		OnToolCall: func(ctx context.Context, e *domain.ToolEvent) {
			logger.DebugContext(ctx, "Tool call", "session_id", e.SessionID, "tool", e.ToolName, "invocation_id", e.InvocationID, "args", e.Arguments)
		},
		OnToolReturn: func(ctx context.Context, e *domain.ToolEvent) {
			logger.DebugContext(ctx, "Tool return", "session_id", e.SessionID, "tool", e.ToolName, "invocation_id", e.InvocationID, "is_error", e.IsError, "duration", e.Duration)
		},
		OnTurnEnd: func(ctx context.Context, e *domain.TurnEvent) {
			logger.InfoContext(ctx, "Turn finished", "session_id", e.SessionID, "status", e.Status, "rounds", e.Rounds, "invocations", e.Invocations)
		},
	}
}

// Combine fans each event out to every non-nil hook, in order.
func Combine(all ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range all {
		h := h
		if f := h.OnRoundStart; f != nil {
			prev := out.OnRoundStart
			out.OnRoundStart = func(ctx context.Context, e *domain.RoundEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				f(ctx, e)
			}
		}
		if f := h.OnToolCall; f != nil {
			prev := out.OnToolCall
			out.OnToolCall = func(ctx context.Context, e *domain.ToolEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				f(ctx, e)
			}
		}
		if f := h.OnToolReturn; f != nil {
			prev := out.OnToolReturn
			out.OnToolReturn = func(ctx context.Context, e *domain.ToolEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				f(ctx, e)
			}
		}
		if f := h.OnTurnEnd; f != nil {
			prev := out.OnTurnEnd
			out.OnTurnEnd = func(ctx context.Context, e *domain.TurnEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				f(ctx, e)
			}
		}
	}
	return out
}
