package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scrolldepth/internal/ir"
	"github.com/roach88/scrolldepth/internal/store"
)

// seedLog writes two instances to a fresh crossing log.
func seedLog(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "crossings.db")
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	require.NoError(t, st.WriteInstance(ctx, store.Instance{ID: "article-1", Context: "body", Page: "/posts/hello"}))
	require.NoError(t, st.WriteInstance(ctx, store.Instance{ID: "feed-1", Context: "#feed"}))

	for _, c := range []ir.Crossing{
		{Instance: "article-1", Label: "25%", Depth: 250, Epoch: 0, Seq: 1},
		{Instance: "article-1", Label: "50%", Depth: 500, Epoch: 0, Seq: 2},
		{Instance: "article-1", Label: "25%", Depth: 250, Epoch: 1, Seq: 3},
	} {
		require.NoError(t, st.WriteCrossing(ctx, c))
	}
	return dbPath
}

func TestTrace_Text(t *testing.T) {
	dbPath := seedLog(t)

	out, err := execute(t, NewTraceCommand(textOpts()), "--db", dbPath)
	require.NoError(t, err)

	assert.Contains(t, out, "=== article-1 ===")
	assert.Contains(t, out, "Page:    /posts/hello")
	assert.Contains(t, out, "[1] 25% depth=250 epoch=0")
	assert.Contains(t, out, "[3] 25% depth=250 epoch=1")
	assert.Contains(t, out, "=== feed-1 ===")
	assert.Contains(t, out, "(no crossings)")
	assert.Contains(t, out, "Total crossings: 3")
}

func TestTrace_JSONSingleInstance(t *testing.T) {
	dbPath := seedLog(t)

	out, err := execute(t, NewTraceCommand(jsonOpts()), "--db", dbPath, "--instance", "article-1")
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   TraceResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data.Instances, 1)
	assert.Equal(t, int64(2), resp.Data.Instances[0].Epochs)
	assert.Equal(t, 3, resp.Data.Total)
	assert.Equal(t, []string{"25%", "50%", "25%"}, labels(resp.Data.Instances[0].Crossings))
}

func TestTrace_UnknownInstance(t *testing.T) {
	dbPath := seedLog(t)

	_, err := execute(t, NewTraceCommand(textOpts()), "--db", dbPath, "--instance", "missing")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTrace_MissingDatabase(t *testing.T) {
	_, err := execute(t, NewTraceCommand(textOpts()), "--db", filepath.Join(t.TempDir(), "none.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "E005")
}

func TestTrace_RequiresDB(t *testing.T) {
	_, err := execute(t, NewTraceCommand(textOpts()))
	require.Error(t, err)
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "article-1", truncateID("article-1"))
	assert.Equal(t, "0190a3b2...9c1d2e3f", truncateID("0190a3b2-7c4d-7e5f-8a6b-1f2e9c1d2e3f"))
}

func labels(cs []ir.Crossing) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Label
	}
	return out
}
