package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/canopy/pkg/tokens"
	"github.com/aretw0/canopy/pkg/tree"
)

// Outline renders the subtree under n as an indented list, one topic per line.
func Outline(n tree.Node, opts Options) string {
	if !n.Valid() {
		return ""
	}
	var sb strings.Builder

	var walk func(node tree.Node, depth int)
	walk = func(node tree.Node, depth int) {
		indent := strings.Repeat("  ", depth)
		name := tokens.Escape(node.Segment())
		if node.IsRoot() {
			name = "(root)"
		}
		sb.WriteString(indent + name)
		if v, ok := node.Value(); ok {
			sb.WriteString(" = " + tokens.Fit(tokens.Line(v.Payload), opts.ValueBudget))
		}
		sb.WriteByte('\n')

		if opts.MaxDepth > 0 && depth >= opts.MaxDepth {
			if c := node.ChildCount(); c > 0 {
				fmt.Fprintf(&sb, "%s  … %d children\n", indent, c)
			}
			return
		}
		children := node.Children()
		shown := children
		if opts.MaxChildren > 0 && len(shown) > opts.MaxChildren {
			shown = shown[:opts.MaxChildren]
		}
		for _, c := range shown {
			walk(c, depth+1)
		}
		if hidden := len(children) - len(shown); hidden > 0 {
			fmt.Fprintf(&sb, "%s  … %d more\n", indent, hidden)
		}
	}
	walk(n, 0)
	return strings.TrimRight(sb.String(), "\n")
}
