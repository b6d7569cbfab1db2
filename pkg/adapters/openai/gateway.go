// Package openai implements ports.ModelGateway over any OpenAI-compatible chat
// completions endpoint.
package openai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/canopy/internal/logging"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/sashabaranov/go-openai"
)

// DefaultModel is used when no model name is configured.
const DefaultModel = "gpt-4o-mini"

// Gateway sends the conversation and tool schemas to a chat completions API.
type Gateway struct {
	client      *openai.Client
	model       string
	temperature float32
	logger      *slog.Logger
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithModel sets the model name.
func WithModel(model string) Option {
	return func(g *Gateway) {
		if model != "" {
			g.model = model
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float32) Option {
	return func(g *Gateway) { g.temperature = t }
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) { g.logger = logger }
}

// New creates a gateway. An empty baseURL targets api.openai.com.
func New(apiKey, baseURL string, opts ...Option) *Gateway {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return NewFromClient(openai.NewClientWithConfig(cfg), opts...)
}

// NewFromClient wraps an existing client.
func NewFromClient(client *openai.Client, opts ...Option) *Gateway {
	g := &Gateway{
		client: client,
		model:  DefaultModel,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Complete implements ports.ModelGateway.
func (g *Gateway) Complete(ctx context.Context, messages []domain.Message, tools []domain.Tool) (domain.Completion, error) {
	req := openai.ChatCompletionRequest{
		Model:       g.model,
		Messages:    toMessages(messages),
		Tools:       toTools(tools),
		Temperature: g.temperature,
	}

	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return domain.Completion{}, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return domain.Completion{}, fmt.Errorf("chat completion returned no choices")
	}

	choice := resp.Choices[0]
	g.logger.Debug("Received completion",
		"model", g.model,
		"finish_reason", choice.FinishReason,
		"tool_calls", len(choice.Message.ToolCalls),
		"prompt_tokens", resp.Usage.PromptTokens,
	)
	return fromMessage(choice.Message), nil
}

func toMessages(msgs []domain.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(msgs))
	for _, m := range msgs {
		cm := openai.ChatCompletionMessage{
			Role:       string(m.Role),
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
		}
		for _, inv := range m.ToolCalls {
			cm.ToolCalls = append(cm.ToolCalls, openai.ToolCall{
				ID:   inv.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      inv.Name,
					Arguments: inv.Arguments,
				},
			})
		}
		out = append(out, cm)
	}
	return out
}

func toTools(tools []domain.Tool) []openai.Tool {
	if len(tools) == 0 {
		return nil
	}
	out := make([]openai.Tool, len(tools))
	for i, t := range tools {
		out[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		}
	}
	return out
}

func fromMessage(m openai.ChatCompletionMessage) domain.Completion {
	c := domain.Completion{Text: m.Content}
	for _, tc := range m.ToolCalls {
		c.ToolCalls = append(c.ToolCalls, domain.ToolInvocation{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return c
}
