package ports

import (
	"context"

	"github.com/aretw0/canopy/pkg/domain"
)

// ModelGateway is the request/response boundary to a language model provider.
//
// Implementations must send the messages in order and echo assistant tool calls
// verbatim; each tool message carries the ToolCallID of the invocation it answers.
type ModelGateway interface {
	Complete(ctx context.Context, messages []domain.Message, tools []domain.Tool) (domain.Completion, error)
}

// GatewayFunc adapts a function to the ModelGateway interface.
type GatewayFunc func(ctx context.Context, messages []domain.Message, tools []domain.Tool) (domain.Completion, error)

// Complete calls f.
func (f GatewayFunc) Complete(ctx context.Context, messages []domain.Message, tools []domain.Tool) (domain.Completion, error) {
	return f(ctx, messages, tools)
}
