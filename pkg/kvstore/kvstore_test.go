package kvstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), "paths")
	require.NoError(t, err)

	entries := map[string]json.RawMessage{
		"101": json.RawMessage(`{"stdout":"/logs/a.out"}`),
		"102": json.RawMessage(`{"stdout":"/logs/b.out"}`),
	}
	require.NoError(t, store.SaveAll(entries))

	loaded, err := store.LoadAll()
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.JSONEq(t, `{"stdout":"/logs/a.out"}`, string(loaded["101"]))
}

func TestFileStoreLoadMissing(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), "never-written")
	require.NoError(t, err)

	loaded, err := store.LoadAll()
	require.NoError(t, err, "a store that was never written is empty, not broken")
	assert.Empty(t, loaded)
}

func TestFileStoreLoadCorrupt(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, "paths")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(store.Path(), []byte("{not json"), 0o644))

	_, err = store.LoadAll()
	assert.Error(t, err)
}

func TestFileStoreSaveReplacesWholeMap(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), "pins")
	require.NoError(t, err)

	require.NoError(t, store.SaveAll(map[string]json.RawMessage{
		"a": json.RawMessage(`1`),
		"b": json.RawMessage(`2`),
	}))
	require.NoError(t, store.SaveAll(map[string]json.RawMessage{
		"a": json.RawMessage(`1`),
	}))

	loaded, err := store.LoadAll()
	require.NoError(t, err)
	assert.Len(t, loaded, 1)
	assert.NotContains(t, loaded, "b")
}

func TestFileStoreLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, "scripts")
	require.NoError(t, err)

	require.NoError(t, store.SaveAll(map[string]json.RawMessage{"x": json.RawMessage(`true`)}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "scripts.json", entries[0].Name())
	assert.Equal(t, filepath.Join(dir, "scripts.json"), store.Path())
}

func TestNewFileStoreValidation(t *testing.T) {
	_, err := NewFileStore("", "x")
	assert.Error(t, err)
	_, err = NewFileStore(t.TempDir(), "  ")
	assert.Error(t, err)
}

func TestMemStore(t *testing.T) {
	store := NewMemStore()

	loaded, err := store.LoadAll()
	require.NoError(t, err)
	assert.Empty(t, loaded)

	require.NoError(t, store.SaveAll(map[string]json.RawMessage{"k": json.RawMessage(`"v"`)}))
	assert.Equal(t, 1, store.Saves)

	loaded, err = store.LoadAll()
	require.NoError(t, err)
	assert.Len(t, loaded, 1)

	store.FailSaves = true
	assert.Error(t, store.SaveAll(nil))
}
