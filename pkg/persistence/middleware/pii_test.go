package middleware_test

import (
	"context"
	"testing"

	"github.com/aretw0/canopy/pkg/adapters/memory"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/persistence/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPIIMiddleware_Masking(t *testing.T) {
	underlying := memory.NewStore()
	mw, err := middleware.NewPIIMiddleware([]string{`[\w.]+@[\w.]+`, `sk-[A-Za-z0-9]+`})
	require.NoError(t, err)
	secure := mw(underlying)

	ctx := context.Background()
	state := domain.NewConversationState("pii", "")
	state.Messages = append(state.Messages,
		domain.Message{Role: domain.RoleUser, Content: "mail jane@example.com the value, key sk-abc123"},
		domain.Message{Role: domain.RoleAssistant, ToolCalls: []domain.ToolInvocation{
			{ID: "c1", Name: "describe", Arguments: `{"path":"users/jane@example.com"}`},
		}},
	)
	require.NoError(t, secure.Save(ctx, "pii", state))

	assert.Equal(t, "mail jane@example.com the value, key sk-abc123", state.Messages[0].Content,
		"caller state must not be modified")

	stored, err := underlying.Load(ctx, "pii")
	require.NoError(t, err)
	assert.Equal(t, "mail *** the value, key ***", stored.Messages[0].Content)
	assert.Equal(t, `{"path":"users/***"}`, stored.Messages[1].ToolCalls[0].Arguments)
}

func TestPIIMiddleware_InvalidPattern(t *testing.T) {
	_, err := middleware.NewPIIMiddleware([]string{"("})
	assert.Error(t, err)
}

func TestChain_Order(t *testing.T) {
	underlying := memory.NewStore()
	pii, err := middleware.NewPIIMiddleware([]string{`secret`})
	require.NoError(t, err)
	enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	require.NoError(t, err)

	// Redaction runs first, so the encrypted payload never holds the raw value.
	store := middleware.Chain(underlying, pii, enc)

	ctx := context.Background()
	state := conversation("c", "my secret is here")
	require.NoError(t, store.Save(ctx, "c", state))

	loaded, err := store.Load(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, "my *** is here", loaded.Messages[1].Content)
}
