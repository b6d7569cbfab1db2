package tools_test

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/canopy/pkg/tokens"
	"github.com/aretw0/canopy/pkg/tools"
	"github.com/aretw0/canopy/pkg/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// homeTree builds home/bedroom/lamp (OFF, ON, OFF, ON) and home/bedroom/sensor (22.5).
func homeTree() *tree.Tree {
	tr := tree.New()
	for i, v := range []string{"OFF", "ON", "OFF", "ON"} {
		tr.Update("home/bedroom/lamp", v, false, t0.Add(time.Duration(i)*time.Minute))
	}
	tr.Update("home/bedroom/sensor", "22.5", true, t0)
	return tr
}

func lines(s string) []string {
	return strings.Split(s, "\n")
}

func TestHistory_OldestFirstWithinNewestWindow(t *testing.T) {
	d := tools.NewDispatcher()
	out := d.History("home/bedroom/lamp", 2, homeTree().Root())

	l := lines(out)
	require.Len(t, l, 3)
	assert.Contains(t, l[0], "home/bedroom/lamp")
	assert.Equal(t, "[2024-05-01T12:02:00Z] OFF", l[1])
	assert.Equal(t, "[2024-05-01T12:03:00Z] ON", l[2])
}

func TestHistory_DefaultLimitAndClamp(t *testing.T) {
	tr := tree.New()
	for i := 0; i < 40; i++ {
		tr.Update("counter", i, false, t0.Add(time.Duration(i)*time.Second))
	}
	d := tools.NewDispatcher()

	assert.Len(t, lines(d.History("counter", 0, tr.Root())), 1+tools.HistoryDefaultLimit)
	assert.Len(t, lines(d.History("counter", -3, tr.Root())), 1+tools.HistoryDefaultLimit)

	clamped := lines(d.History("counter", 500, tr.Root()))
	require.Len(t, clamped, 1+tools.HistoryMaxLimit)
	assert.True(t, strings.HasSuffix(clamped[1], "] 20"))
	assert.True(t, strings.HasSuffix(clamped[len(clamped)-1], "] 39"))
}

func TestHistory_EmptyAndMissing(t *testing.T) {
	d := tools.NewDispatcher()
	root := homeTree().Root()

	assert.Contains(t, d.History("home/bedroom", 5, root), "No history")
	out := d.History("home/attic", 5, root)
	assert.Contains(t, out, "not found")
	assert.Contains(t, out, "home/attic")
}

func TestDescribe(t *testing.T) {
	d := tools.NewDispatcher()
	root := homeTree().Root()

	out := d.Describe("home/bedroom/sensor", root)
	assert.Contains(t, out, "Topic: home/bedroom/sensor")
	assert.Contains(t, out, "Value: 22.5")
	assert.Contains(t, out, "Retained: true")
	assert.Contains(t, out, "Messages: 1")
	assert.Contains(t, out, "Children: 0")

	structural := d.Describe("home/bedroom", root)
	assert.Contains(t, structural, "structural")
	assert.Contains(t, structural, "Children: 2")
}

func TestDescribe_NotFoundScenario(t *testing.T) {
	d := tools.NewDispatcher()
	out := d.Describe("home/attic", homeTree().Root())
	assert.Contains(t, out, "not found")
	assert.Contains(t, out, "home/attic")
}

func TestDescribe_EscapesPayload(t *testing.T) {
	tr := tree.New()
	tr.Update("notes", "a\nb \"c\"", false, t0)

	out := tools.NewDispatcher().Describe("notes", tr.Root())
	var valueLine string
	for _, l := range lines(out) {
		if strings.HasPrefix(l, "Value: ") {
			valueLine = l
		}
	}
	assert.Equal(t, `Value: a\nb \"c\"`, valueLine)
}

func TestChildren_Scenario(t *testing.T) {
	d := tools.NewDispatcher()
	out := d.Children("home/bedroom", 10, homeTree().Root())

	l := lines(out)
	require.Len(t, l, 3)
	assert.Equal(t, "- home/bedroom/lamp [value]", l[1])
	assert.Equal(t, "- home/bedroom/sensor [value]", l[2])
}

func TestChildren_LimitKeepsOriginalOrder(t *testing.T) {
	tr := tree.New()
	for _, name := range []string{"e", "d", "c", "b", "a"} {
		tr.Update("parent/"+name, name, false, t0)
	}
	out := tools.NewDispatcher().Children("parent", 2, tr.Root())

	l := lines(out)
	require.Len(t, l, 3)
	assert.Contains(t, l[0], "showing 2 of 5")
	assert.Equal(t, "- parent/e [value]", l[1])
	assert.Equal(t, "- parent/d [value]", l[2])
}

func TestChildren_RootAndStructuralMarkers(t *testing.T) {
	tr := homeTree()
	tr.Update("garage", "open", false, t0)
	d := tools.NewDispatcher()

	out := d.Children("", 0, tr.Root())
	assert.Contains(t, out, "Children of (root)")
	assert.Contains(t, out, "- home [structural] (1 children)")
	assert.Contains(t, out, "- garage [value]")

	assert.Contains(t, d.Children("home/bedroom/lamp", 5, tr.Root()), "No children")
	assert.Contains(t, d.Children("nope", 5, tr.Root()), "not found")
}

func TestChildren_ClampedToMax(t *testing.T) {
	tr := tree.New()
	for i := 0; i < 80; i++ {
		tr.Update(fmt.Sprintf("bus/%02d", i), i, false, t0)
	}
	out := tools.NewDispatcher(tools.WithBudgets(tools.Budgets{Children: 100000})).Children("bus", 1000, tr.Root())
	assert.Len(t, lines(out), 1+tools.ChildrenMaxLimit)
}

func TestParents_Scenario(t *testing.T) {
	out := tools.NewDispatcher().Parents("home/bedroom/lamp", homeTree().Root())

	assert.Equal(t, strings.Join([]string{
		"Hierarchy for home/bedroom/lamp:",
		"home",
		"  home/bedroom",
		"    home/bedroom/lamp (current)",
	}, "\n"), out)
}

func TestParents_RootLevelAndRoot(t *testing.T) {
	d := tools.NewDispatcher()
	root := homeTree().Root()

	out := d.Parents("home", root)
	assert.Contains(t, out, "no parent")
	assert.NotContains(t, out, "Error")

	assert.Contains(t, d.Parents("", root), "no parent")
	assert.Contains(t, d.Parents("home/attic", root), "not found")
}

func TestOperations_StayWithinBudget(t *testing.T) {
	tr := tree.New()
	big := strings.Repeat("payload ", 200)
	for i := 0; i < 60; i++ {
		for j := 0; j < 25; j++ {
			tr.Update(fmt.Sprintf("plant/line%02d/station", i), big+fmt.Sprint(j), false, t0)
		}
	}
	deep := strings.Repeat("level/", 150) + "leaf"
	tr.Update(deep, big, false, t0)

	b := tools.Budgets{History: 50, Describe: 40, Children: 60, Parents: 30}
	d := tools.NewDispatcher(tools.WithBudgets(b))
	root := tr.Root()

	assert.LessOrEqual(t, tokens.Estimate(d.History("plant/line01/station", 20, root)), b.History)
	assert.LessOrEqual(t, tokens.Estimate(d.Describe("plant/line01/station", root)), b.Describe)
	assert.LessOrEqual(t, tokens.Estimate(d.Children("plant", 50, root)), b.Children)
	assert.LessOrEqual(t, tokens.Estimate(d.Parents(deep, root)), b.Parents)
	assert.Contains(t, d.Parents(deep, root), tokens.TruncationMarker)
}

func TestOperations_FailureTextsStayWithinBudget(t *testing.T) {
	long := strings.Repeat("x", 2000)
	tr := tree.New()
	tr.Update(long, "v", false, t0)

	b := tools.Budgets{History: 50, Describe: 40, Children: 60, Parents: 30}
	d := tools.NewDispatcher(tools.WithBudgets(b))
	root := tr.Root()
	missing := long + "/missing"

	assert.LessOrEqual(t, tokens.Estimate(d.Describe(missing, root)), b.Describe)
	assert.LessOrEqual(t, tokens.Estimate(d.History(missing, 5, root)), b.History)
	assert.LessOrEqual(t, tokens.Estimate(d.Children(long, 5, root)), b.Children)
	assert.LessOrEqual(t, tokens.Estimate(d.Parents(long, root)), b.Parents)
	assert.True(t, strings.HasPrefix(d.Describe(missing, root), "Topic "))
}
