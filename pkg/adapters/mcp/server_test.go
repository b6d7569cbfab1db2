package mcp

import (
	"context"
	"testing"

	"github.com/aretw0/canopy"
	"github.com/aretw0/canopy/pkg/adapters/memory"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/ports"
	"github.com/aretw0/canopy/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) *Server {
	t.Helper()
	gw := ports.GatewayFunc(func(_ context.Context, msgs []domain.Message, _ []domain.Tool) (domain.Completion, error) {
		return domain.Completion{Text: "answer to: " + msgs[len(msgs)-1].Content}, nil
	})
	mgr := session.NewManager(memory.NewStore(), session.WithGateway(gw))
	return NewServer(canopy.New(ports.StaticTree{T: memory.Demo()}, canopy.WithSessions(mgr)))
}

func call(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestToolHandlers(t *testing.T) {
	s := newServer(t)
	ctx := context.Background()

	res, err := s.toolHandler("describe")(ctx, call("describe", map[string]any{"path": "garage/door"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Contains(t, text(t, res), "Value: open")

	res, err = s.toolHandler("history")(ctx, call("history", map[string]any{"path": "home/bedroom/lamp", "limit": 2}))
	require.NoError(t, err)
	assert.Contains(t, text(t, res), "showing 2 of 3")

	res, err = s.toolHandler("children")(ctx, call("children", nil))
	require.NoError(t, err)
	assert.Contains(t, text(t, res), "Children of (root)")

	res, err = s.toolHandler("parents")(ctx, call("parents", map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "path is required")
}

func TestDigestHandler(t *testing.T) {
	s := newServer(t)

	res, err := s.handleDigest(context.Background(), call("digest", map[string]any{"path": "home/bedroom/lamp"}))
	require.NoError(t, err)
	assert.Contains(t, text(t, res), "Topic: home/bedroom/lamp")

	res, err = s.handleDigest(context.Background(), call("digest", map[string]any{"path": "nope"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestAskHandler(t *testing.T) {
	s := newServer(t)

	res, err := s.handleAsk(context.Background(), call("ask", map[string]any{"session_id": "m1", "text": "hello"}))
	require.NoError(t, err)
	assert.Equal(t, "answer to: hello", text(t, res))

	res, err = s.handleAsk(context.Background(), call("ask", map[string]any{"text": "hello"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}
