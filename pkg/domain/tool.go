package domain

// ToolInvocation is the canonical record of a tool call requested by the model.
// Arguments is the raw payload as sent by the model; it is parsed and validated
// independently by the dispatcher.
type ToolInvocation struct {
	ID        string `json:"id" mapstructure:"id"`               // Correlation ID echoed back in the tool result
	Name      string `json:"name" mapstructure:"name"`           // Operation name (history, describe, children, parents)
	Arguments string `json:"arguments" mapstructure:"arguments"` // Raw JSON arguments
}

// ToolResult is the token-bounded text output of one invocation.
type ToolResult struct {
	ID      string `json:"id"` // Must match the ToolInvocation.ID
	Name    string `json:"name"`
	Content string `json:"content"`
	IsError bool   `json:"is_error,omitempty"`
}

// Tool describes an operation offered to the model.
// Parameters is a JSON schema object.
type Tool struct {
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description" yaml:"description"`
	Parameters  map[string]any `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}
