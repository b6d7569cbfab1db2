package tools

import (
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/canopy/pkg/tokens"
	"github.com/aretw0/canopy/pkg/tree"
)

// History lists the most recent values of the topic at path, oldest first.
// limit is clamped to HistoryMaxLimit; zero or negative selects HistoryDefaultLimit.
func (d *Dispatcher) History(path string, limit int, root tree.Node) string {
	return tokens.Fit(history(path, limit, root), d.budgets.History)
}

func history(path string, limit int, root tree.Node) string {
	n, err := tree.Resolve(path, root)
	if err != nil {
		return notFound(path)
	}

	hist := n.History()
	if len(hist) == 0 {
		return fmt.Sprintf("No history for %s.", label(path))
	}

	limit = clamp(limit, HistoryDefaultLimit, HistoryMaxLimit)
	window := hist
	if len(window) > limit {
		window = window[len(window)-limit:]
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "History for %s (showing %d of %d retained values, %d messages total):\n",
		label(path), len(window), len(hist), n.MessageCount())
	for _, v := range window {
		fmt.Fprintf(&sb, "[%s] %s\n", v.ReceivedAt.UTC().Format(time.RFC3339), tokens.Line(v.Payload))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// Describe summarizes the topic at path.
func (d *Dispatcher) Describe(path string, root tree.Node) string {
	return tokens.Fit(describe(path, root), d.budgets.Describe)
}

func describe(path string, root tree.Node) string {
	n, err := tree.Resolve(path, root)
	if err != nil {
		return notFound(path)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Topic: %s\n", label(path))
	if v, ok := n.Value(); ok {
		fmt.Fprintf(&sb, "Value: %s\n", tokens.Line(v.Payload))
		fmt.Fprintf(&sb, "Retained: %t\n", v.Retained)
		fmt.Fprintf(&sb, "Last received: %s\n", v.ReceivedAt.UTC().Format(time.RFC3339))
	} else {
		sb.WriteString("Value: (none, structural topic)\n")
		sb.WriteString("Retained: false\n")
	}
	fmt.Fprintf(&sb, "Messages: %d\n", n.MessageCount())
	fmt.Fprintf(&sb, "Children: %d", n.ChildCount())
	return sb.String()
}

// Children lists up to limit direct children of the topic at path, in insertion
// order. The empty path lists the first-level topics.
func (d *Dispatcher) Children(path string, limit int, root tree.Node) string {
	return tokens.Fit(children(path, limit, root), d.budgets.Children)
}

func children(path string, limit int, root tree.Node) string {
	n, err := tree.Resolve(path, root)
	if err != nil {
		return notFound(path)
	}

	kids := n.Children()
	if len(kids) == 0 {
		return fmt.Sprintf("No children under %s.", label(path))
	}

	limit = clamp(limit, ChildrenDefaultLimit, ChildrenMaxLimit)
	shown := kids
	if len(shown) > limit {
		shown = shown[:limit]
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Children of %s (showing %d of %d):\n", label(path), len(shown), len(kids))
	for _, c := range shown {
		kind := "structural"
		if c.HasValue() {
			kind = "value"
		}
		fmt.Fprintf(&sb, "- %s [%s]", tokens.Escape(c.Path()), kind)
		if cc := c.ChildCount(); cc > 0 {
			fmt.Fprintf(&sb, " (%d children)", cc)
		}
		sb.WriteByte('\n')
	}
	return strings.TrimRight(sb.String(), "\n")
}

// Parents renders the ancestor chain of the topic at path as an indented
// hierarchy ending with the topic itself marked "(current)".
func (d *Dispatcher) Parents(path string, root tree.Node) string {
	return tokens.Fit(parents(path, root), d.budgets.Parents)
}

func parents(path string, root tree.Node) string {
	n, err := tree.Resolve(path, root)
	if err != nil {
		return notFound(path)
	}
	if n.IsRoot() {
		return "The root has no parent."
	}

	ancestors := n.Ancestors()
	if len(ancestors) == 0 {
		return fmt.Sprintf("%s has no parent: it is a root-level topic.", label(path))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Hierarchy for %s:\n", label(path))
	for depth, a := range ancestors {
		fmt.Fprintf(&sb, "%s%s\n", strings.Repeat("  ", depth), tokens.Escape(a.Path()))
	}
	fmt.Fprintf(&sb, "%s%s (current)", strings.Repeat("  ", len(ancestors)), label(path))
	return sb.String()
}

func notFound(path string) string {
	return fmt.Sprintf("Topic %s not found.", quoted(path))
}

func quoted(path string) string {
	return `"` + tokens.Escape(path) + `"`
}

func label(path string) string {
	if path == "" {
		return "(root)"
	}
	return tokens.Escape(path)
}
