package domain

import "time"

// ConversationState is the message history of one user session.
type ConversationState struct {
	SessionID string    `json:"session_id"`
	Messages  []Message `json:"messages"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewConversationState creates a state seeded with the given system prompt.
// An empty prompt yields an empty history.
func NewConversationState(sessionID, systemPrompt string) *ConversationState {
	s := &ConversationState{
		SessionID: sessionID,
		Messages:  []Message{},
		UpdatedAt: time.Now(),
	}
	if systemPrompt != "" {
		s.Messages = append(s.Messages, Message{Role: RoleSystem, Content: systemPrompt})
	}
	return s
}

// Clone returns a deep copy of the state.
func (s *ConversationState) Clone() *ConversationState {
	if s == nil {
		return nil
	}
	c := *s
	c.Messages = make([]Message, len(s.Messages))
	for i, m := range s.Messages {
		c.Messages[i] = m.Clone()
	}
	return &c
}

// Reset drops every message except a leading system message.
func (s *ConversationState) Reset() {
	if len(s.Messages) > 0 && s.Messages[0].Role == RoleSystem {
		s.Messages = s.Messages[:1]
	} else {
		s.Messages = s.Messages[:0]
	}
	s.UpdatedAt = time.Now()
}

// Trim keeps a leading system message plus at most the `keep` most recent messages.
// The cut never starts on a tool message, so every kept tool result is still
// preceded by the assistant message that requested it.
func (s *ConversationState) Trim(keep int) {
	if keep <= 0 {
		return
	}

	var head []Message
	body := s.Messages
	if len(body) > 0 && body[0].Role == RoleSystem {
		head = body[:1]
		body = body[1:]
	}
	if len(body) <= keep {
		return
	}

	cut := len(body) - keep
	for cut < len(body) && body[cut].Role == RoleTool {
		cut++
	}

	trimmed := make([]Message, 0, len(head)+len(body)-cut)
	trimmed = append(trimmed, head...)
	trimmed = append(trimmed, body[cut:]...)
	s.Messages = trimmed
}
