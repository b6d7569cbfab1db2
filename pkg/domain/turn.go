package domain

// TurnStatus tags the outcome of a conversation round or turn.
type TurnStatus string

const (
	TurnDone            TurnStatus = "done"              // The model produced a plain-text reply
	TurnNeedsMoreRounds TurnStatus = "needs_more_rounds" // Tools were executed; the model must be called again
	TurnLimitReached    TurnStatus = "limit_reached"     // The round cap was hit without a final reply
)

// Completion is the response of the model gateway for one round.
// Either Text is a final reply, or ToolCalls is non-empty (Text may carry partial output).
type Completion struct {
	Text      string           `json:"text,omitempty"`
	ToolCalls []ToolInvocation `json:"tool_calls,omitempty"`
}

// HasToolCalls reports whether the model requested tool invocations.
func (c Completion) HasToolCalls() bool {
	return len(c.ToolCalls) > 0
}

// TurnResult is the outcome of one user turn.
type TurnResult struct {
	FinalText       string     `json:"final_text"`
	InvocationsUsed int        `json:"invocations_used"`
	RoundsUsed      int        `json:"rounds_used"`
	Status          TurnStatus `json:"status"`
}
