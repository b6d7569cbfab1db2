package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aretw0/canopy"
	"github.com/aretw0/canopy/pkg/adapters/memory"
	"github.com/aretw0/canopy/pkg/ports"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns stdout. Flags are reset
// afterwards because cobra commands are package globals.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("CANOPY_SNAPSHOT", "")
	t.Setenv("CANOPY_FEEDS", "")
	t.Setenv("CANOPY_REDIS_ADDR", "")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(append(args, "--config", filepath.Join(t.TempDir(), "missing.yaml")))
	t.Cleanup(func() { resetFlags(rootCmd) })

	err := rootCmd.Execute()
	return out.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "canopy version "+canopy.Version+"\n", out)
}

func TestQuery_Describe(t *testing.T) {
	out, err := execute(t, "", "query", "describe", "home/bedroom/sensor")
	require.NoError(t, err)
	assert.Contains(t, out, "Topic: home/bedroom/sensor")
	assert.Contains(t, out, "Value: 22.5")
	assert.Contains(t, out, "Retained: true")
}

func TestQuery_HistoryLimit(t *testing.T) {
	out, err := execute(t, "", "query", "history", "home/bedroom/lamp", "--limit", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "showing 2 of 3 retained values")
}

func TestQuery_UnknownTool(t *testing.T) {
	_, err := execute(t, "", "query", "delete", "home")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown tool")
}

func TestQuery_Stdin(t *testing.T) {
	calls := `[
		{"name": "children", "arguments": {"path": "home"}},
		{"function": {"name": "parents", "arguments": "{\"path\":\"home/kitchen/fridge\"}"}},
		{"arguments": {}}
	]`
	out, err := execute(t, calls, "query", "--stdin")
	require.NoError(t, err)

	assert.Contains(t, out, "Children of home (showing 2 of 2)")
	assert.Contains(t, out, "Hierarchy for home/kitchen/fridge")
	assert.Contains(t, out, "Error:")
	assert.Less(t, strings.Index(out, "Children of home"), strings.Index(out, "Hierarchy for"))
}

func TestDigest(t *testing.T) {
	out, err := execute(t, "", "digest", "home/bedroom/lamp")
	require.NoError(t, err)
	assert.Contains(t, out, "home/bedroom/lamp")
	assert.Contains(t, out, "OFF")
}

func TestDigest_NotFound(t *testing.T) {
	_, err := execute(t, "", "digest", "home/attic")
	require.Error(t, err)
}

func TestTree_Formats(t *testing.T) {
	out, err := execute(t, "", "tree")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "(root)\n"))
	assert.Contains(t, out, "  garage\n    door = open")

	out, err = execute(t, "", "tree", "home", "--format", "mermaid", "--highlight", "home/bedroom")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "graph LR\n"))
	assert.Contains(t, out, "classDef current")

	_, err = execute(t, "", "tree", "--format", "dot")
	require.Error(t, err)
}

func TestTree_SnapshotRoundTrip(t *testing.T) {
	out, err := execute(t, "", "tree", "--format", "yaml")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "tree.yaml")
	require.NoError(t, os.WriteFile(path, []byte(out), 0o644))

	described, err := execute(t, "", "query", "describe", "garage/door", "--snapshot", path)
	require.NoError(t, err)
	assert.Contains(t, described, "Value: open")
}

func TestAsk_WithoutModel(t *testing.T) {
	t.Setenv("CANOPY_API_KEY", "")
	t.Setenv("CANOPY_BASE_URL", "")
	t.Setenv("OPENAI_API_KEY", "")

	_, err := execute(t, "", "ask", "what is on?")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no model gateway configured")
}

func TestChat_Commands(t *testing.T) {
	exp := canopy.New(ports.StaticTree{T: memory.Demo()})
	var out bytes.Buffer
	c := &chat{
		explorer:  exp,
		sessionID: "s1",
		render:    func(s string) (string, error) { return s, nil },
		out:       &out,
	}

	in := strings.Join([]string{
		"/focus home/attic",
		"/focus garage/door",
		"/digest",
		"hello",
		"/clear",
		"/nope",
		"/quit",
		"never read",
	}, "\n")
	require.NoError(t, c.loop(context.Background(), strings.NewReader(in)))

	text := out.String()
	assert.Contains(t, text, `Error: not found: "home/attic"`)
	assert.Equal(t, "garage/door", c.focus)
	assert.Contains(t, text, "garage/door > ")
	assert.Contains(t, text, "open")
	assert.Contains(t, text, "no model gateway configured")
	assert.Contains(t, text, "History cleared.")
	assert.Contains(t, text, "Unknown command /nope")
	assert.NotContains(t, text, "never read")
}
