package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/canopy/internal/logging"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/tokens"
	"github.com/aretw0/canopy/pkg/tree"
	"golang.org/x/sync/errgroup"
)

// Operation names.
const (
	OpHistory  = "history"
	OpDescribe = "describe"
	OpChildren = "children"
	OpParents  = "parents"
)

// Limits applied to the optional limit argument.
const (
	HistoryDefaultLimit  = 10
	HistoryMaxLimit      = 20
	ChildrenDefaultLimit = 20
	ChildrenMaxLimit     = 50
)

// Budgets holds the token budget of each operation's output.
type Budgets struct {
	History  int `yaml:"history"`
	Describe int `yaml:"describe"`
	Children int `yaml:"children"`
	Parents  int `yaml:"parents"`
}

// DefaultBudgets returns the budgets used when none are configured.
func DefaultBudgets() Budgets {
	return Budgets{
		History:  1500,
		Describe: 500,
		Children: 1200,
		Parents:  600,
	}
}

// Dispatcher executes tool invocations against a topic tree.
// It holds no tree state and is safe for concurrent use.
type Dispatcher struct {
	budgets     Budgets
	hooks       domain.LifecycleHooks
	logger      *slog.Logger
	concurrency int
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithBudgets overrides the per-operation budgets. Zero fields keep their default.
func WithBudgets(b Budgets) Option {
	return func(d *Dispatcher) {
		if b.History > 0 {
			d.budgets.History = b.History
		}
		if b.Describe > 0 {
			d.budgets.Describe = b.Describe
		}
		if b.Children > 0 {
			d.budgets.Children = b.Children
		}
		if b.Parents > 0 {
			d.budgets.Parents = b.Parents
		}
	}
}

// WithHooks registers tool call observability hooks.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(d *Dispatcher) {
		d.hooks = hooks
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithConcurrency bounds how many invocations of one batch run at once.
// 1 runs them sequentially.
func WithConcurrency(n int) Option {
	return func(d *Dispatcher) {
		d.concurrency = n
	}
}

// NewDispatcher creates a Dispatcher with default budgets.
func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		budgets:     DefaultBudgets(),
		logger:      logging.NewNop(),
		concurrency: 4,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Budgets returns the configured budgets.
func (d *Dispatcher) Budgets() Budgets {
	return d.budgets
}

// Dispatch executes one invocation. Failures are reported in the result text.
func (d *Dispatcher) Dispatch(inv domain.ToolInvocation, root tree.Node) domain.ToolResult {
	res := domain.ToolResult{ID: inv.ID, Name: inv.Name}

	args, err := parseArguments(inv.Arguments)
	if err == nil {
		err = args.validate(operationName(inv.Name))
	}
	if err != nil {
		d.logger.Warn("Tool arguments rejected",
			"invocation_id", inv.ID,
			"tool", inv.Name,
			"err", err,
		)
		res.Content = d.errorText(inv.Name, fmt.Sprintf("Error: invocation %s (%s): %v", inv.ID, inv.Name, err))
		res.IsError = true
		return res
	}

	switch operationName(inv.Name) {
	case OpHistory:
		res.Content = d.History(args.path(), args.Limit, root)
	case OpDescribe:
		res.Content = d.Describe(args.path(), root)
	case OpChildren:
		res.Content = d.Children(args.path(), args.Limit, root)
	case OpParents:
		res.Content = d.Parents(args.path(), root)
	default:
		res.Content = d.errorText(inv.Name, fmt.Sprintf("Error: invocation %s: %v %q. Available tools: %s.",
			inv.ID, domain.ErrUnknownTool, inv.Name, strings.Join(Names(), ", ")))
		res.IsError = true
	}
	return res
}

// DispatchAll executes every invocation exactly once and returns the results in
// invocation order. Invocations have no ordering dependency and run concurrently;
// the call returns only once all of them completed.
func (d *Dispatcher) DispatchAll(ctx context.Context, invs []domain.ToolInvocation, root tree.Node) []domain.ToolResult {
	results := make([]domain.ToolResult, len(invs))

	var g errgroup.Group
	if d.concurrency > 0 {
		g.SetLimit(d.concurrency)
	}
	for i, inv := range invs {
		g.Go(func() error {
			results[i] = d.observe(ctx, inv, root)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (d *Dispatcher) observe(ctx context.Context, inv domain.ToolInvocation, root tree.Node) domain.ToolResult {
	start := time.Now()
	sessionID := domain.SessionFromContext(ctx)
	if d.hooks.OnToolCall != nil {
		d.hooks.OnToolCall(ctx, &domain.ToolEvent{
			EventBase:    domain.EventBase{Timestamp: start, Type: domain.EventToolCall, SessionID: sessionID},
			InvocationID: inv.ID,
			ToolName:     inv.Name,
			Arguments:    inv.Arguments,
		})
	}

	res := d.Dispatch(inv, root)

	d.logger.Debug("Tool executed",
		"invocation_id", inv.ID,
		"tool", inv.Name,
		"is_error", res.IsError,
		"size", len(res.Content),
	)
	if d.hooks.OnToolReturn != nil {
		d.hooks.OnToolReturn(ctx, &domain.ToolEvent{
			EventBase:    domain.EventBase{Timestamp: time.Now(), Type: domain.EventToolReturn, SessionID: sessionID},
			InvocationID: inv.ID,
			ToolName:     inv.Name,
			Arguments:    inv.Arguments,
			Output:       res.Content,
			IsError:      res.IsError,
			Duration:     time.Since(start),
		})
	}
	return res
}

// errorText bounds a failure message by the budget of the named operation, or
// by the smallest budget when the name is not an operation.
func (d *Dispatcher) errorText(name, text string) string {
	b := d.budgets
	budget := min(b.History, b.Describe, b.Children, b.Parents)
	switch operationName(name) {
	case OpHistory:
		budget = b.History
	case OpDescribe:
		budget = b.Describe
	case OpChildren:
		budget = b.Children
	case OpParents:
		budget = b.Parents
	}
	return tokens.Fit(text, budget)
}

func operationName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func clamp(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
