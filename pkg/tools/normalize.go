package tools

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/google/uuid"
)

// looseCall accepts the field spellings used by different providers and clients.
type looseCall struct {
	ID         string `mapstructure:"id"`
	ToolCallID string `mapstructure:"tool_call_id"`
	CallID     string `mapstructure:"call_id"`

	Name string `mapstructure:"name"`
	Tool string `mapstructure:"tool"`

	Arguments any `mapstructure:"arguments"`
	Args      any `mapstructure:"args"`
	Input     any `mapstructure:"input"`

	Function *struct {
		Name      string `mapstructure:"name"`
		Arguments any    `mapstructure:"arguments"`
	} `mapstructure:"function"`
}

// NormalizeInvocation converts a loosely shaped tool call record into the
// canonical ToolInvocation. Arguments given as an object are re-encoded as JSON.
func NormalizeInvocation(raw map[string]any) (domain.ToolInvocation, error) {
	var lc looseCall
	if err := decodeWeak(raw, &lc); err != nil {
		return domain.ToolInvocation{}, fmt.Errorf("%w: tool call: %v", domain.ErrMalformedArguments, err)
	}

	inv := domain.ToolInvocation{
		ID:   firstNonEmpty(lc.ID, lc.ToolCallID, lc.CallID),
		Name: firstNonEmpty(lc.Name, lc.Tool),
	}

	args := firstNonNil(lc.Arguments, lc.Args, lc.Input)
	if lc.Function != nil {
		if inv.Name == "" {
			inv.Name = lc.Function.Name
		}
		if args == nil {
			args = lc.Function.Arguments
		}
	}

	encoded, err := encodeArguments(args)
	if err != nil {
		return domain.ToolInvocation{}, err
	}
	inv.Arguments = encoded

	if strings.TrimSpace(inv.Name) == "" {
		return domain.ToolInvocation{}, fmt.Errorf("%w: tool call has no operation name", domain.ErrMalformedArguments)
	}
	return Canonicalize(inv), nil
}

// Canonicalize fills in a correlation ID when the model did not supply one.
// Every other field is preserved verbatim.
func Canonicalize(inv domain.ToolInvocation) domain.ToolInvocation {
	if inv.ID == "" {
		inv.ID = "call_" + uuid.NewString()
	}
	return inv
}

func encodeArguments(args any) (string, error) {
	switch v := args.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("%w: arguments: %v", domain.ErrMalformedArguments, err)
		}
		return string(b), nil
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstNonNil(values ...any) any {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}
