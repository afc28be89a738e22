package session_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	agent "github.com/armatrix/claude-agent-runtime"
	"github.com/armatrix/claude-agent-runtime/message"
	"github.com/armatrix/claude-agent-runtime/session"
)

func tempDir(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "sessions")
}

func TestFileStore_NewCreatesDir(t *testing.T) {
	dir := tempDir(t)
	store, err := session.NewFileStore(dir)
	require.NoError(t, err)
	require.NotNil(t, store)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestFileStore_RoundTrip(t *testing.T) {
	store, err := session.NewFileStore(tempDir(t))
	require.NoError(t, err)
	ctx := context.Background()

	want := makeState("file-1")
	require.NoError(t, store.Save(ctx, want))

	got, err := store.Load(ctx, "file-1")
	require.NoError(t, err)

	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Status, got.Status)
	assert.Equal(t, want.Config, got.Config)
	assert.Equal(t, want.Usage, got.Usage)
	assert.True(t, want.TotalCost.Equal(got.TotalCost))
	assert.Equal(t, want.Files[0].ID, got.Files[0].ID)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt))

	require.Len(t, got.Messages, 3)
	blocks := got.Messages[1].Content.Blocks()
	require.Len(t, blocks, 2)
	assert.Equal(t, message.TextBlock{Text: "let me check"}, blocks[0])
	use, ok := blocks[1].(message.ToolUseBlock)
	require.True(t, ok)
	assert.Equal(t, "tu_1", use.ID)
	assert.JSONEq(t, `{"path":"a.txt"}`, string(use.Input))

	results := got.Messages[2].Content.Blocks().ToolResults()
	require.Len(t, results, 1)
	assert.True(t, results[0].IsError)
	assert.Equal(t, "hello", got.Messages[0].Content.Text())
	assert.True(t, got.Messages[0].Content.IsText())
}

func TestFileStore_SaveNil(t *testing.T) {
	store, err := session.NewFileStore(tempDir(t))
	require.NoError(t, err)
	assert.Error(t, store.Save(context.Background(), nil))
}

func TestFileStore_LoadNotFound(t *testing.T) {
	store, err := session.NewFileStore(tempDir(t))
	require.NoError(t, err)

	_, err = store.Load(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, agent.ErrSessionNotFound)
}

func TestFileStore_LoadCorrupt(t *testing.T) {
	dir := tempDir(t)
	store, err := session.NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{not json"), 0o644))

	_, err = store.Load(context.Background(), "bad")
	require.Error(t, err)
	assert.NotErrorIs(t, err, agent.ErrSessionNotFound)
}

func TestFileStore_Delete(t *testing.T) {
	store, err := session.NewFileStore(tempDir(t))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, makeState("del-1")))
	require.NoError(t, store.Delete(ctx, "del-1"))

	_, err = store.Load(ctx, "del-1")
	assert.ErrorIs(t, err, agent.ErrSessionNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "del-1"), agent.ErrSessionNotFound)
}

func TestFileStore_SaveOverwriteLeavesNoTempFiles(t *testing.T) {
	dir := tempDir(t)
	store, err := session.NewFileStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	s := makeState("overwrite")
	require.NoError(t, store.Save(ctx, s))
	s.Status = agent.StatusError
	s.TotalCost = decimal.NewFromFloat(0.5)
	require.NoError(t, store.Save(ctx, s))

	loaded, err := store.Load(ctx, "overwrite")
	require.NoError(t, err)
	assert.Equal(t, agent.StatusError, loaded.Status, "save should overwrite existing session")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "overwrite.json", entries[0].Name())
}

func TestFileStore_ExternalIDsStayInsideDir(t *testing.T) {
	dir := tempDir(t)
	store, err := session.NewFileStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, makeState("../escape")))
	require.NoError(t, store.Save(ctx, makeState("tenant/42")))

	_, err = os.Stat(filepath.Join(filepath.Dir(dir), "escape.json"))
	assert.True(t, os.IsNotExist(err))

	loaded, err := store.Load(ctx, "tenant/42")
	require.NoError(t, err)
	assert.Equal(t, "tenant/42", loaded.ID)

	states, err := store.List(ctx)
	require.NoError(t, err)
	ids := make([]string, 0, len(states))
	for _, s := range states {
		ids = append(ids, s.ID)
	}
	assert.ElementsMatch(t, []string{"../escape", "tenant/42"}, ids)
}

func TestFileStore_ListSkipsNonJSON(t *testing.T) {
	dir := tempDir(t)
	store, err := session.NewFileStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, makeState("real")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "corrupt.json"), []byte("{"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".session-123.tmp"), []byte("{"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.json"), 0o755))

	states, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, states, 1)
	assert.Equal(t, "real", states[0].ID)
}
