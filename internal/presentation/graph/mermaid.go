// Package graph renders topic trees for humans: Mermaid flowcharts and indented outlines.
package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/canopy/pkg/tokens"
	"github.com/aretw0/canopy/pkg/tree"
)

// Overlay highlights topics on the rendered tree.
type Overlay struct {
	Focus string // Path of the selected topic
}

// Options bound the rendered subtree.
type Options struct {
	MaxDepth    int // 0 means unlimited
	MaxChildren int // per node; 0 means unlimited
	ValueBudget int // tokens per displayed value
}

// DefaultOptions keeps diagrams readable for large trees.
func DefaultOptions() Options {
	return Options{MaxDepth: 4, MaxChildren: 20, ValueBudget: 8}
}

// GenerateMermaid produces a Mermaid flowchart of the subtree under n.
// Value-bearing topics are rectangles, structural topics are rounded, and hidden
// children are summarized in a "+N more" node.
func GenerateMermaid(n tree.Node, opts Options, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")
	if !n.Valid() {
		return sb.String()
	}

	ids := map[string]string{}
	next := 0
	id := func(path string) string {
		if v, ok := ids[path]; ok {
			return v
		}
		v := fmt.Sprintf("n%d", next)
		next++
		ids[path] = v
		return v
	}

	var walk func(node tree.Node, depth int)
	walk = func(node tree.Node, depth int) {
		self := id(node.Path())
		sb.WriteString("    " + self + shape(node, opts.ValueBudget) + "\n")

		if opts.MaxDepth > 0 && depth >= opts.MaxDepth {
			return
		}
		children := node.Children()
		shown := children
		if opts.MaxChildren > 0 && len(shown) > opts.MaxChildren {
			shown = shown[:opts.MaxChildren]
		}
		for _, c := range shown {
			walk(c, depth+1)
			fmt.Fprintf(&sb, "    %s --> %s\n", self, id(c.Path()))
		}
		if hidden := len(children) - len(shown); hidden > 0 {
			more := self + "_more"
			fmt.Fprintf(&sb, "    %s{{\"+%d more\"}}\n", more, hidden)
			fmt.Fprintf(&sb, "    %s -.-> %s\n", self, more)
		}
	}
	walk(n, 0)

	if overlay != nil && overlay.Focus != "" {
		if focus, ok := ids[overlay.Focus]; ok {
			sb.WriteString("\n    %% Overlay Styles\n")
			// Force black text (color:#000) for contrast on both themes
			sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
			fmt.Fprintf(&sb, "    class %s current;\n", focus)
		}
	}
	return sb.String()
}

func shape(n tree.Node, budget int) string {
	name := n.Segment()
	if n.IsRoot() {
		name = "(root)"
	}
	name = mermaidText(name)

	v, ok := n.Value()
	if !ok {
		return "(\"" + name + "\")"
	}
	value := mermaidText(tokens.Fit(tokens.Line(v.Payload), budget))
	return "[\"" + name + " = " + value + "\"]"
}

// mermaidText makes a label safe inside double quotes.
func mermaidText(s string) string {
	return strings.NewReplacer(`"`, "#quot;", "<", "#lt;", ">", "#gt;").Replace(s)
}
