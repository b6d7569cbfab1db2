package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunConversationStoreContract runs a suite of tests to verify that a ConversationStore
// implementation adheres to the defined interface contract.
func RunConversationStoreContract(t *testing.T, store ConversationStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		state := domain.NewConversationState(sessionID, "system prompt")
		state.Messages = append(state.Messages,
			domain.Message{Role: domain.RoleUser, Content: "what is the lamp doing?"},
			domain.Message{Role: domain.RoleAssistant, ToolCalls: []domain.ToolInvocation{
				{ID: "call_1", Name: "describe", Arguments: `{"path":"home/lamp"}`},
			}},
			domain.Message{Role: domain.RoleTool, ToolCallID: "call_1", Content: "Topic: home/lamp"},
		)

		err := store.Save(ctx, sessionID, state)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, sessionID, loaded.SessionID)
		require.Len(t, loaded.Messages, 4)
		assert.Equal(t, domain.RoleSystem, loaded.Messages[0].Role)
		assert.Equal(t, "call_1", loaded.Messages[2].ToolCalls[0].ID)
		assert.Equal(t, `{"path":"home/lamp"}`, loaded.Messages[2].ToolCalls[0].Arguments)
		assert.Equal(t, "call_1", loaded.Messages[3].ToolCallID)
	})

	t.Run("Load Is Isolated From Caller Mutation", func(t *testing.T) {
		state := domain.NewConversationState(sessionID, "system prompt")
		require.NoError(t, store.Save(ctx, sessionID, state))

		state.Messages = append(state.Messages, domain.Message{Role: domain.RoleUser, Content: "late"})

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Len(t, loaded.Messages, 1)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, sessionID, domain.NewConversationState(sessionID, ""))
		require.NoError(t, err)

		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, domain.NewConversationState(id1, ""))
		_ = store.Save(ctx, id2, domain.NewConversationState(id2, ""))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
