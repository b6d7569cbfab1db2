package domain

// Role identifies the author of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is a single entry of a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content,omitempty"`

	// ToolCalls is set on assistant messages that request tool invocations.
	ToolCalls []ToolInvocation `json:"tool_calls,omitempty"`

	// ToolCallID links a tool message to the invocation it answers.
	ToolCallID string `json:"tool_call_id,omitempty"`
}

// Clone returns a copy of the message that shares no slices with the original.
func (m Message) Clone() Message {
	if m.ToolCalls != nil {
		calls := make([]ToolInvocation, len(m.ToolCalls))
		copy(calls, m.ToolCalls)
		m.ToolCalls = calls
	}
	return m
}
