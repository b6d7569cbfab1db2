package tools_test

import (
	"strings"
	"testing"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeInvocation_Shapes(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
		want domain.ToolInvocation
	}{
		{
			name: "canonical",
			raw:  map[string]any{"id": "c1", "name": "describe", "arguments": `{"path":"a"}`},
			want: domain.ToolInvocation{ID: "c1", Name: "describe", Arguments: `{"path":"a"}`},
		},
		{
			name: "openai function envelope",
			raw: map[string]any{
				"id":       "c2",
				"type":     "function",
				"function": map[string]any{"name": "children", "arguments": `{"path":""}`},
			},
			want: domain.ToolInvocation{ID: "c2", Name: "children", Arguments: `{"path":""}`},
		},
		{
			name: "alternate names with object arguments",
			raw:  map[string]any{"tool_call_id": "c3", "tool": "history", "input": map[string]any{"path": "a", "limit": 3}},
			want: domain.ToolInvocation{ID: "c3", Name: "history", Arguments: `{"limit":3,"path":"a"}`},
		},
		{
			name: "args alias",
			raw:  map[string]any{"call_id": "c4", "name": "parents", "args": map[string]any{"topic": "x/y"}},
			want: domain.ToolInvocation{ID: "c4", Name: "parents", Arguments: `{"topic":"x/y"}`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tools.NormalizeInvocation(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeInvocation_SynthesizesID(t *testing.T) {
	got, err := tools.NormalizeInvocation(map[string]any{"name": "describe"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got.ID, "call_"))
	assert.Empty(t, got.Arguments)
}

func TestNormalizeInvocation_MissingName(t *testing.T) {
	_, err := tools.NormalizeInvocation(map[string]any{"id": "x", "arguments": "{}"})
	assert.ErrorIs(t, err, domain.ErrMalformedArguments)
}

func TestCanonicalize_PreservesExistingID(t *testing.T) {
	inv := domain.ToolInvocation{ID: "keep", Name: "describe", Arguments: `{"path":"a"}`}
	assert.Equal(t, inv, tools.Canonicalize(inv))
}
