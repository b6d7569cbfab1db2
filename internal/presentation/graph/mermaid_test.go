package graph_test

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/canopy/internal/presentation/graph"
	"github.com/aretw0/canopy/pkg/tree"
	"github.com/stretchr/testify/assert"
)

func homeTree() *tree.Tree {
	tr := tree.New()
	now := time.Now()
	tr.Update("home/bedroom/lamp", "ON", false, now)
	tr.Update("home/bedroom/sensor", `say "hi"`, false, now)
	tr.Update("garage/door", "open", false, now)
	return tr
}

func TestGenerateMermaid(t *testing.T) {
	tests := []struct {
		name     string
		overlay  *graph.Overlay
		opts     graph.Options
		contains []string
		excludes []string
	}{
		{
			name: "Shapes",
			opts: graph.DefaultOptions(),
			contains: []string{
				"graph LR",
				`n0("(root)")`,
				`("home")`,
				`["lamp = ON"]`,
			},
		},
		{
			name:     "Quotes Escaped",
			opts:     graph.DefaultOptions(),
			contains: []string{`sensor = say \#quot;hi\#quot;`},
		},
		{
			name:     "Focus Overlay",
			opts:     graph.DefaultOptions(),
			overlay:  &graph.Overlay{Focus: "garage/door"},
			contains: []string{"classDef current", "current;"},
		},
		{
			name:     "Depth Limit",
			opts:     graph.Options{MaxDepth: 1},
			contains: []string{`("home")`},
			excludes: []string{"bedroom"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := graph.GenerateMermaid(homeTree().Root(), tt.opts, tt.overlay)
			for _, c := range tt.contains {
				assert.Contains(t, out, c)
			}
			for _, e := range tt.excludes {
				assert.NotContains(t, out, e)
			}
		})
	}
}

func TestGenerateMermaid_MoreNode(t *testing.T) {
	tr := tree.New()
	for i := 0; i < 5; i++ {
		tr.Update(fmt.Sprintf("fleet/t%d", i), i, false, time.Now())
	}
	out := graph.GenerateMermaid(tr.Root(), graph.Options{MaxChildren: 2}, nil)
	assert.Contains(t, out, `"+3 more"`)
	assert.Equal(t, 1, strings.Count(out, "-.->"))
}

func TestOutline(t *testing.T) {
	out := graph.Outline(homeTree().Root(), graph.DefaultOptions())
	assert.Equal(t, strings.Join([]string{
		"(root)",
		"  home",
		"    bedroom",
		"      lamp = ON",
		`      sensor = say \"hi\"`,
		"  garage",
		"    door = open",
	}, "\n"), out)

	assert.Empty(t, graph.Outline(tree.Node{}, graph.DefaultOptions()))
}
