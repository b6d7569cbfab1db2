package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeModel answers with a describe call until it has seen a tool result,
// then with a plain reply.
func fakeModel(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var req struct {
			Messages []struct {
				Role string `json:"role"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		w.Header().Set("Content-Type", "application/json")
		if last := req.Messages[len(req.Messages)-1]; last.Role == "tool" {
			_, _ = w.Write([]byte(`{"choices": [{"index": 0, "message": {"role": "assistant", "content": "The lamp is OFF."}}]}`))
			return
		}
		_, _ = w.Write([]byte(`{"choices": [{"index": 0, "finish_reason": "tool_calls", "message": {
			"role": "assistant",
			"tool_calls": [{"id": "call_1", "type": "function",
				"function": {"name": "describe", "arguments": "{\"path\":\"home/bedroom/lamp\"}"}}]
		}}]}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAsk_PersistsEncryptedSession(t *testing.T) {
	var calls atomic.Int32
	srv := fakeModel(t, &calls)
	dir := t.TempDir()

	t.Setenv("CANOPY_BASE_URL", srv.URL+"/v1")
	t.Setenv("CANOPY_API_KEY", "test-key")
	t.Setenv("CANOPY_SESSIONS_DIR", dir)
	t.Setenv("CANOPY_ENCRYPTION_KEY", base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{9}, 32)))

	out, err := execute(t, "", "ask", "--session", "s1", "--plain", "is the bedroom lamp on?")
	require.NoError(t, err)
	assert.Equal(t, "The lamp is OFF.\n", out)
	assert.EqualValues(t, 2, calls.Load())

	raw, err := os.ReadFile(filepath.Join(dir, "s1.json"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "bedroom")

	// The second turn resumes the stored history.
	_, err = execute(t, "", "ask", "--session", "s1", "--plain", "and now?")
	require.NoError(t, err)
	assert.EqualValues(t, 4, calls.Load())
}

func TestStorageMiddlewares_InvalidConfig(t *testing.T) {
	t.Setenv("CANOPY_ENCRYPTION_KEY", base64.StdEncoding.EncodeToString([]byte("short")))
	_, err := execute(t, "", "digest")
	assert.Error(t, err)
}
