package conversation

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/tools"
	"github.com/aretw0/canopy/pkg/tree"
)

// step is the outcome of a single round.
type step struct {
	status      domain.TurnStatus // TurnDone or TurnNeedsMoreRounds
	text        string
	invocations int
}

// run loops rounds until the model replies in plain text or the cap is reached.
// It mutates working only; the caller decides whether to commit it.
func (s *Session) run(ctx context.Context, working *domain.ConversationState, root tree.Node) (domain.TurnResult, error) {
	var result domain.TurnResult
	var partial string

	for round := 1; round <= s.maxRounds; round++ {
		st, err := s.round(ctx, working, root, round)
		if err != nil {
			return domain.TurnResult{}, err
		}

		result.RoundsUsed = round
		result.InvocationsUsed += st.invocations
		if st.text != "" {
			partial = st.text
		}

		if st.status == domain.TurnDone {
			result.Status = domain.TurnDone
			result.FinalText = st.text
			return result, nil
		}
	}

	s.logger.Warn("Round limit reached",
		"session_id", working.SessionID,
		"rounds", result.RoundsUsed,
		"invocations", result.InvocationsUsed,
	)

	result.Status = domain.TurnLimitReached
	result.FinalText = partial
	if result.FinalText == "" {
		result.FinalText = ExhaustionNotice
	}
	working.Messages = append(working.Messages, domain.Message{
		Role:    domain.RoleAssistant,
		Content: result.FinalText,
	})
	return result, nil
}

// round performs AWAITING_MODEL and, when tools are requested, EXECUTING_TOOLS.
func (s *Session) round(ctx context.Context, working *domain.ConversationState, root tree.Node, round int) (step, error) {
	if s.hooks.OnRoundStart != nil {
		s.hooks.OnRoundStart(ctx, &domain.RoundEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventRoundStart, SessionID: working.SessionID},
			Round:     round,
		})
	}
	s.logger.Debug("Calling model gateway", "session_id", working.SessionID, "round", round, "messages", len(working.Messages))

	completion, err := s.gateway.Complete(ctx, cloneMessages(working.Messages), tools.Definitions())
	if err != nil {
		s.logger.Error("Model gateway failed", "session_id", working.SessionID, "round", round, "err", err)
		return step{}, fmt.Errorf("%w (round %d): %w", domain.ErrGateway, round, err)
	}

	if !completion.HasToolCalls() {
		working.Messages = append(working.Messages, domain.Message{
			Role:    domain.RoleAssistant,
			Content: completion.Text,
		})
		return step{status: domain.TurnDone, text: completion.Text}, nil
	}

	invs := make([]domain.ToolInvocation, len(completion.ToolCalls))
	for i, inv := range completion.ToolCalls {
		invs[i] = tools.Canonicalize(inv)
	}

	// The request goes into history before any of its results.
	working.Messages = append(working.Messages, domain.Message{
		Role:      domain.RoleAssistant,
		Content:   completion.Text,
		ToolCalls: invs,
	})

	for _, res := range s.dispatcher.DispatchAll(ctx, invs, root) {
		working.Messages = append(working.Messages, domain.Message{
			Role:       domain.RoleTool,
			ToolCallID: res.ID,
			Content:    res.Content,
		})
	}

	return step{status: domain.TurnNeedsMoreRounds, text: completion.Text, invocations: len(invs)}, nil
}

func cloneMessages(msgs []domain.Message) []domain.Message {
	out := make([]domain.Message, len(msgs))
	for i, m := range msgs {
		out[i] = m.Clone()
	}
	return out
}
