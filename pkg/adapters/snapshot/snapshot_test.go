package snapshot_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/canopy/pkg/adapters/snapshot"
	"github.com/aretw0/canopy/pkg/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const homeYAML = `
messages:
  - topic: home/bedroom/lamp
    payload: "OFF"
    at: 2024-05-01T12:00:00Z
  - topic: home/bedroom/lamp
    payload: "ON"
    at: 2024-05-01T12:01:00Z
  - topic: home/bedroom/sensor
    payload: 22.5
    retained: true
    at: 2024-05-01T12:02:00Z
  - topic: zigbee/bridge/info
    payload:
      version: 1.35
      online: true
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoad_YAML(t *testing.T) {
	p := writeFile(t, t.TempDir(), "tree.yaml", homeYAML)

	tr, err := snapshot.Load(p)
	require.NoError(t, err)

	lamp, err := tree.Resolve("home/bedroom/lamp", tr.Root())
	require.NoError(t, err)
	assert.Equal(t, 2, lamp.MessageCount())
	v, _ := lamp.Value()
	assert.Equal(t, "ON", v.Payload)
	assert.Equal(t, time.Date(2024, 5, 1, 12, 1, 0, 0, time.UTC), v.ReceivedAt.UTC())

	sensor, err := tree.Resolve("home/bedroom/sensor", tr.Root())
	require.NoError(t, err)
	v, _ = sensor.Value()
	assert.Equal(t, 22.5, v.Payload)
	assert.True(t, v.Retained)

	info, err := tree.Resolve("zigbee/bridge/info", tr.Root())
	require.NoError(t, err)
	v, _ = info.Value()
	assert.IsType(t, map[string]any{}, v.Payload)
}

func TestLoad_JSON(t *testing.T) {
	p := writeFile(t, t.TempDir(), "tree.json", `{"messages": [{"topic": "a/b", "payload": "1"}]}`)

	tr, err := snapshot.Load(p)
	require.NoError(t, err)
	n, err := tree.Resolve("a/b", tr.Root())
	require.NoError(t, err)
	assert.True(t, n.HasValue())
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := snapshot.Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	p := writeFile(t, dir, "bad.yaml", "messages:\n  - payload: x\n")
	_, err = snapshot.Load(p)
	assert.ErrorContains(t, err, "topic is required")
}

func TestEncode_RoundTrip(t *testing.T) {
	p := writeFile(t, t.TempDir(), "tree.yaml", homeYAML)
	tr, err := snapshot.Load(p)
	require.NoError(t, err)

	data, err := snapshot.Encode(tr, snapshot.FormatYAML)
	require.NoError(t, err)
	f, err := snapshot.Decode(data, snapshot.FormatYAML)
	require.NoError(t, err)

	rebuilt := f.Build()
	assert.Equal(t, tr.Len(), rebuilt.Len())
	lamp, err := tree.Resolve("home/bedroom/lamp", rebuilt.Root())
	require.NoError(t, err)
	assert.Equal(t, 2, lamp.MessageCount())
}

func TestSource_WatchReloads(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "tree.yaml", homeYAML)

	src, err := snapshot.NewSource(p, snapshot.WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	first := src.Tree()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- src.Watch(ctx) }()

	// Let the watcher register before writing.
	time.Sleep(100 * time.Millisecond)
	writeFile(t, dir, "tree.yaml", "messages:\n  - topic: garage/door\n    payload: open\n")

	require.Eventually(t, func() bool { return src.Reloads() >= 2 }, 3*time.Second, 20*time.Millisecond)
	assert.NotSame(t, first, src.Tree())
	_, err = tree.Resolve("garage/door", src.Tree().Root())
	assert.NoError(t, err)

	// An unrelated file in the same directory does not trigger a reload.
	before := src.Reloads()
	writeFile(t, dir, "other.txt", "noise")
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, before, src.Reloads())

	cancel()
	assert.NoError(t, <-done)
}

func TestSource_BadReloadKeepsPrevious(t *testing.T) {
	p := writeFile(t, t.TempDir(), "tree.yaml", homeYAML)
	src, err := snapshot.NewSource(p)
	require.NoError(t, err)
	before := src.Tree()

	writeFile(t, filepath.Dir(p), "tree.yaml", "messages: [")
	assert.Error(t, src.Reload())
	assert.Same(t, before, src.Tree())
}
