package digest

import (
	"github.com/aretw0/canopy/pkg/tokens"
	"github.com/aretw0/canopy/pkg/tree"
)

// tier is one priority level of the related walk.
type tier struct {
	nodes     []tree.Node
	allowance int
}

// meter tracks the budget remaining for the related section.
type meter struct {
	remaining int
	lines     []string
}

// fill appends entries first-fit: the first candidate that does not fit ends the
// tier, but later tiers still get their chance.
func (m *meter) fill(t tier) {
	for _, n := range t.nodes {
		line, ok := entry(n, t.allowance)
		if !ok {
			continue
		}
		cost := tokens.Estimate(line + "\n")
		if cost > m.remaining {
			return
		}
		m.remaining -= cost
		m.lines = append(m.lines, line)
	}
}

// entry renders "- path: value" for value-bearing nodes. Structural nodes are not
// candidates.
func entry(n tree.Node, allowance int) (string, bool) {
	v, ok := n.Value()
	if !ok {
		return "", false
	}
	return "- " + tokens.Escape(n.Path()) + ": " + tokens.Fit(tokens.Line(v.Payload), allowance), true
}

// related walks parent, siblings, children, grandchildren and cousins, in that
// priority, under a single overall budget.
func (b *Builder) related(n tree.Node) []string {
	var parent []tree.Node
	var siblings []tree.Node

	if p, ok := n.Parent(); ok {
		if !p.IsRoot() {
			parent = []tree.Node{p}
		}
		for _, s := range p.Children() {
			if s != n {
				siblings = append(siblings, s)
			}
		}
	}

	children := n.Children()

	var grandchildren []tree.Node
	for _, c := range children {
		grandchildren = append(grandchildren, c.Children()...)
	}

	var cousins []tree.Node
	for _, s := range siblings {
		cousins = append(cousins, s.Children()...)
	}

	m := &meter{remaining: b.opts.RelatedBudget}
	for _, t := range []tier{
		{nodes: parent, allowance: b.opts.EntryBudget},
		{nodes: siblings, allowance: b.opts.EntryBudget},
		{nodes: children, allowance: b.opts.EntryBudget},
		{nodes: grandchildren, allowance: b.opts.EntryBudget},
		{nodes: cousins, allowance: b.opts.CousinBudget},
	} {
		if m.remaining <= 0 {
			break
		}
		m.fill(t)
	}
	return m.lines
}
