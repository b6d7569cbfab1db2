// Package digest builds a bounded, single-document text summary of a topic and
// its neighborhood, suitable for embedding in a model prompt.
package digest

import (
	"fmt"
	"strings"

	"github.com/aretw0/canopy/pkg/tokens"
	"github.com/aretw0/canopy/pkg/tree"
)

// Options bounds the size of a digest. All values are in tokens.
type Options struct {
	// ValueBudget bounds the node's own value line.
	ValueBudget int
	// RelatedBudget is the single budget shared by every entry of the related section.
	RelatedBudget int
	// EntryBudget bounds each related value (parent, siblings, children, grandchildren).
	EntryBudget int
	// CousinBudget bounds each cousin value. Kept slightly below EntryBudget.
	CousinBudget int
}

// DefaultOptions returns the budgets used when none are configured.
func DefaultOptions() Options {
	return Options{
		ValueBudget:   200,
		RelatedBudget: 500,
		EntryBudget:   48,
		CousinBudget:  32,
	}
}

// Builder produces digests with fixed budgets.
type Builder struct {
	opts Options
}

// Option configures a Builder.
type Option func(*Options)

// WithRelatedBudget sets the overall related section budget.
func WithRelatedBudget(n int) Option {
	return func(o *Options) { o.RelatedBudget = n }
}

// WithEntryBudgets sets the per-entry allowances for close relatives and cousins.
func WithEntryBudgets(entry, cousin int) Option {
	return func(o *Options) {
		o.EntryBudget = entry
		o.CousinBudget = cousin
	}
}

// WithValueBudget sets the budget of the node's own value.
func WithValueBudget(n int) Option {
	return func(o *Options) { o.ValueBudget = n }
}

// NewBuilder creates a Builder from DefaultOptions and the given overrides.
func NewBuilder(opts ...Option) *Builder {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Builder{opts: o}
}

// Options returns the builder's budgets.
func (b *Builder) Options() Options {
	return b.opts
}

// Build renders the digest of n with the default budgets.
func Build(n tree.Node) string {
	return NewBuilder().Build(n)
}

// Build renders, in order: the path, the escaped value, a retained marker, the
// related section, then message and child counts. An absent node yields "".
func (b *Builder) Build(n tree.Node) string {
	if !n.Valid() {
		return ""
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Topic: %s\n", displayPath(n))

	if v, ok := n.Value(); ok {
		fmt.Fprintf(&sb, "Value: %s\n", tokens.Fit(tokens.Line(v.Payload), b.opts.ValueBudget))
		if v.Retained {
			sb.WriteString("Retained: true\n")
		}
	}

	if related := b.related(n); len(related) > 0 {
		sb.WriteString("Related:\n")
		for _, line := range related {
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
	}

	if c := n.MessageCount(); c > 0 {
		fmt.Fprintf(&sb, "Messages: %d\n", c)
	}
	if c := n.ChildCount(); c > 0 {
		fmt.Fprintf(&sb, "Children: %d\n", c)
	}

	return strings.TrimRight(sb.String(), "\n")
}

func displayPath(n tree.Node) string {
	if n.IsRoot() {
		return "(root)"
	}
	return tokens.Escape(n.Path())
}
