package canopy_test

import (
	"context"
	"testing"

	"github.com/aretw0/canopy"
	"github.com/aretw0/canopy/pkg/adapters/memory"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/ports"
	"github.com/aretw0/canopy/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExplorer_InvokeLooseKeepsPositions(t *testing.T) {
	exp := canopy.New(ports.StaticTree{T: memory.Demo()})

	results := exp.InvokeLoose(context.Background(), []map[string]any{
		{"tool": "describe", "args": map[string]any{"topic": "garage/door"}},
		{"arguments": "{}"},
		{"function": map[string]any{"name": "children", "arguments": `{"path": ""}`}, "call_id": "c3"},
	})

	require.Len(t, results, 3)
	assert.Contains(t, results[0].Content, "Value: open")
	assert.NotEmpty(t, results[0].ID)
	assert.True(t, results[1].IsError)
	assert.Contains(t, results[1].Content, "no operation name")
	assert.Equal(t, "c3", results[2].ID)
	assert.Contains(t, results[2].Content, "Children of (root)")
}

func TestExplorer_Focus(t *testing.T) {
	exp := canopy.New(ports.StaticTree{T: memory.Demo()})

	n, err := exp.Focus("")
	require.NoError(t, err)
	assert.True(t, n.IsRoot())

	_, err = exp.Focus("nope/nothing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestExplorer_AskWithStaleFocusUsesRoot(t *testing.T) {
	var sent []domain.Message
	gw := ports.GatewayFunc(func(_ context.Context, msgs []domain.Message, _ []domain.Tool) (domain.Completion, error) {
		sent = msgs
		return domain.Completion{Text: "Nothing there."}, nil
	})
	manager := session.NewManager(memory.NewStore(), session.WithGateway(gw))
	exp := canopy.New(ports.StaticTree{T: memory.Demo()}, canopy.WithSessions(manager))

	res, err := exp.Ask(context.Background(), "s", "what about it?", "nope/gone")
	require.NoError(t, err)
	assert.Equal(t, domain.TurnDone, res.Status)
	assert.Equal(t, "Nothing there.", res.FinalText)

	require.NotEmpty(t, sent)
	last := sent[len(sent)-1]
	assert.Equal(t, domain.RoleUser, last.Role)
	assert.Equal(t, "what about it?", last.Content)
}

func TestExplorer_NoTree(t *testing.T) {
	exp := canopy.New(ports.StaticTree{})

	_, err := exp.Focus("")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	res := exp.Invoke(context.Background(), domain.ToolInvocation{Name: "describe", Arguments: `{"path":"a"}`})
	assert.Equal(t, `Topic "a" not found.`, res[0].Content)
}

func TestExplorer_Digest(t *testing.T) {
	exp := canopy.New(ports.StaticTree{T: memory.Demo()})

	d, err := exp.Digest("home/bedroom/lamp")
	require.NoError(t, err)
	assert.Contains(t, d, "Topic: home/bedroom/lamp")
	assert.Contains(t, d, "- home/bedroom/sensor: 22.5")
}
