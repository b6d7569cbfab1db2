package middleware_test

import (
	"context"
	"crypto/rand"
	"io"
	"testing"

	"github.com/aretw0/canopy/pkg/adapters/memory"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/persistence/middleware"
	"github.com/aretw0/canopy/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	_, err := io.ReadFull(rand.Reader, k)
	require.NoError(t, err)
	return k
}

func conversation(sessionID string, text string) *domain.ConversationState {
	s := domain.NewConversationState(sessionID, "You are a topic explorer.")
	s.Messages = append(s.Messages,
		domain.Message{Role: domain.RoleUser, Content: text},
		domain.Message{Role: domain.RoleAssistant, ToolCalls: []domain.ToolInvocation{
			{ID: "c1", Name: "describe", Arguments: `{"path":"home/lamp"}`},
		}},
		domain.Message{Role: domain.RoleTool, ToolCallID: "c1", Content: "Topic: home/lamp"},
	)
	return s
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlying := memory.NewStore()
	mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	require.NoError(t, err)
	secure := mw(underlying)

	ctx := context.Background()
	original := conversation("s1", "is the lamp on?")
	require.NoError(t, secure.Save(ctx, "s1", original))

	stored, err := underlying.Load(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, stored.Messages, 1)
	assert.Equal(t, "s1", stored.SessionID)
	assert.NotContains(t, stored.Messages[0].Content, "lamp")

	loaded, err := secure.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, original.Messages, loaded.Messages)

	ids, err := secure.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, ids)

	require.NoError(t, secure.Delete(ctx, "s1"))
	_, err = secure.Load(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlying := memory.NewStore()
	oldKey, newKey := generateKey(t), generateKey(t)

	mwOld, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})
	require.NoError(t, err)
	secureOld := mwOld(underlying)

	ctx := context.Background()
	require.NoError(t, secureOld.Save(ctx, "rot", conversation("rot", "old key")))

	mwNew, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})
	require.NoError(t, err)
	secureNew := mwNew(underlying)

	loaded, err := secureNew.Load(ctx, "rot")
	require.NoError(t, err, "fallback key should decrypt")
	assert.Equal(t, "old key", loaded.Messages[1].Content)

	// Saving again re-encrypts with the new key only.
	require.NoError(t, secureNew.Save(ctx, "rot", loaded))
	_, err = secureOld.Load(ctx, "rot")
	assert.Error(t, err)
}

func TestEncryptionMiddleware_RejectsPlainState(t *testing.T) {
	underlying := memory.NewStore()
	mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, underlying.Save(ctx, "plain", conversation("plain", "hi")))

	_, err = mw(underlying).Load(ctx, "plain")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "envelope")
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	_, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
	assert.ErrorIs(t, err, middleware.ErrInvalidKey)

	_, err = middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    generateKey(t),
		FallbackKeys: [][]byte{[]byte("short")},
	})
	assert.ErrorIs(t, err, middleware.ErrInvalidKey)
}

func TestChain_Contract(t *testing.T) {
	pii, err := middleware.NewPIIMiddleware(nil)
	require.NoError(t, err)
	enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	require.NoError(t, err)

	ports.RunConversationStoreContract(t, middleware.Chain(memory.NewStore(), pii, enc))
}
