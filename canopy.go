package canopy

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/canopy/internal/logging"
	"github.com/aretw0/canopy/pkg/adapters/memory"
	"github.com/aretw0/canopy/pkg/digest"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/ports"
	"github.com/aretw0/canopy/pkg/session"
	"github.com/aretw0/canopy/pkg/tools"
	"github.com/aretw0/canopy/pkg/tree"
)

// Version is the release of the canopy module.
const Version = "0.3.0"

// Explorer is the high-level entry point for the Canopy library.
// It binds a topic tree source, the tool dispatcher, the digest builder and a
// session manager, and is what the HTTP, MCP and CLI front ends are built on.
type Explorer struct {
	trees      ports.TreeSource
	dispatcher *tools.Dispatcher
	builder    *digest.Builder
	sessions   *session.Manager
	logger     *slog.Logger
}

// Option defines a functional option for configuring the Explorer.
type Option func(*Explorer)

// WithDispatcher injects a configured tool dispatcher.
func WithDispatcher(d *tools.Dispatcher) Option {
	return func(e *Explorer) { e.dispatcher = d }
}

// WithDigestBuilder injects a configured digest builder.
func WithDigestBuilder(b *digest.Builder) Option {
	return func(e *Explorer) { e.builder = b }
}

// WithSessions injects the session manager. By default sessions live in memory
// and no model gateway is configured, so Ask fails.
func WithSessions(m *session.Manager) Option {
	return func(e *Explorer) { e.sessions = m }
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Explorer) { e.logger = logger }
}

// New creates an Explorer over trees.
func New(trees ports.TreeSource, opts ...Option) *Explorer {
	e := &Explorer{
		trees:  trees,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.dispatcher == nil {
		e.dispatcher = tools.NewDispatcher(tools.WithLogger(e.logger))
	}
	if e.builder == nil {
		e.builder = digest.NewBuilder()
	}
	if e.sessions == nil {
		e.sessions = session.NewManager(memory.NewStore(), session.WithLogger(e.logger))
	}
	return e
}

// Tree returns the current tree.
func (e *Explorer) Tree() *tree.Tree {
	return e.trees.Tree()
}

// Sessions exposes the session manager.
func (e *Explorer) Sessions() *session.Manager {
	return e.sessions
}

// Dispatcher exposes the tool dispatcher.
func (e *Explorer) Dispatcher() *tools.Dispatcher {
	return e.dispatcher
}

// Focus resolves the topic the user has selected. The empty path is the root.
func (e *Explorer) Focus(path string) (tree.Node, error) {
	t := e.Tree()
	if t == nil {
		return tree.Node{}, fmt.Errorf("no topic tree loaded: %w", domain.ErrNotFound)
	}
	return tree.Resolve(path, t.Root())
}

// Ask runs one conversation turn for sessionID with the given focus topic.
// A focus that no longer resolves, for example after a snapshot reload, falls
// back to the root and the question is sent without a focus digest.
func (e *Explorer) Ask(ctx context.Context, sessionID, text, focusPath string) (domain.TurnResult, error) {
	focus, err := e.Focus(focusPath)
	if err != nil {
		e.logger.Warn("Focus topic unavailable, asking from the root",
			"session_id", sessionID,
			"focus", focusPath,
			"err", err,
		)
		focus = tree.Node{}
		if t := e.Tree(); t != nil {
			focus = t.Root()
		}
	}
	return e.sessions.SendTurn(ctx, sessionID, text, focus)
}

// Invoke executes tool invocations against the current tree root.
func (e *Explorer) Invoke(ctx context.Context, invs ...domain.ToolInvocation) []domain.ToolResult {
	var root tree.Node
	if t := e.Tree(); t != nil {
		root = t.Root()
	}
	canonical := make([]domain.ToolInvocation, len(invs))
	for i, inv := range invs {
		canonical[i] = tools.Canonicalize(inv)
	}
	return e.dispatcher.DispatchAll(ctx, canonical, root)
}

// InvokeLoose normalizes loosely shaped tool call records, then executes them.
// A record that cannot be normalized yields an error result in its position.
func (e *Explorer) InvokeLoose(ctx context.Context, raw []map[string]any) []domain.ToolResult {
	invs := make([]domain.ToolInvocation, 0, len(raw))
	bad := make(map[int]domain.ToolResult)
	for i, r := range raw {
		inv, err := tools.NormalizeInvocation(r)
		if err != nil {
			bad[i] = domain.ToolResult{Content: "Error: " + err.Error(), IsError: true}
			continue
		}
		invs = append(invs, inv)
	}

	ran := e.Invoke(ctx, invs...)
	out := make([]domain.ToolResult, len(raw))
	next := 0
	for i := range raw {
		if res, ok := bad[i]; ok {
			out[i] = res
			continue
		}
		out[i] = ran[next]
		next++
	}
	return out
}

// Digest renders the compact context of the topic at path.
func (e *Explorer) Digest(path string) (string, error) {
	n, err := e.Focus(path)
	if err != nil {
		return "", err
	}
	return e.builder.Build(n), nil
}
