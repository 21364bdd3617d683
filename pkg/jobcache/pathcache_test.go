package jobcache

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slurmdeck/slurmdeck/pkg/kvstore"
)

func seedStore(t *testing.T, store *kvstore.MemStore, id string, v any) {
	t.Helper()
	raw, err := store.LoadAll()
	require.NoError(t, err)
	b, err := json.Marshal(v)
	require.NoError(t, err)
	raw[id] = b
	require.NoError(t, store.SaveAll(raw))
}

func TestPathCacheSetGet(t *testing.T) {
	store := kvstore.NewMemStore()
	c := NewPathCache(store, 0, nil)

	c.Set("101", "/logs/a.out", "/logs/a.err")

	e, ok := c.Get("101")
	require.True(t, ok)
	assert.Equal(t, "/logs/a.out", e.Stdout)
	assert.Equal(t, "/logs/a.err", e.Stderr)
	assert.False(t, e.CachedAt.IsZero())

	_, ok = c.Get("999")
	assert.False(t, ok)
}

func TestPathCacheRejectsUnresolvedPair(t *testing.T) {
	store := kvstore.NewMemStore()
	c := NewPathCache(store, 0, nil)

	c.Set("101", "N/A", "N/A")
	c.Set("102", "", "")

	assert.Zero(t, c.Len())
	assert.Zero(t, store.Saves, "a no-op set must not persist")

	// One resolved path is enough.
	c.Set("103", "/logs/c.out", "N/A")
	_, ok := c.Get("103")
	assert.True(t, ok)
}

func TestPathCachePersistsOnSet(t *testing.T) {
	store := kvstore.NewMemStore()
	c := NewPathCache(store, 0, nil)

	c.Set("101", "/logs/a.out", "/logs/a.err")
	assert.Equal(t, 1, store.Saves, "mutations persist synchronously")

	// A fresh cache over the same store sees the entry.
	c2 := NewPathCache(store, 0, nil)
	e, ok := c2.Get("101")
	require.True(t, ok)
	assert.Equal(t, "/logs/a.out", e.Stdout)
}

func TestPathCachePurgesExpiredAtLoad(t *testing.T) {
	store := kvstore.NewMemStore()
	seedStore(t, store, "old", PathEntry{
		Stdout:   "/logs/old.out",
		CachedAt: time.Now().Add(-31 * 24 * time.Hour),
	})
	seedStore(t, store, "fresh", PathEntry{
		Stdout:   "/logs/fresh.out",
		CachedAt: time.Now().Add(-time.Hour),
	})

	c := NewPathCache(store, 30*24*time.Hour, nil)

	_, ok := c.Get("old")
	assert.False(t, ok, "entries past the TTL are purged at load")
	_, ok = c.Get("fresh")
	assert.True(t, ok)

	// The purge itself was persisted.
	raw, err := store.LoadAll()
	require.NoError(t, err)
	assert.NotContains(t, raw, "old")
}

func TestPathCacheSurvivesStoreFailure(t *testing.T) {
	store := kvstore.NewMemStore()
	store.FailSaves = true
	c := NewPathCache(store, 0, nil)

	// Persistence fails soft: the in-memory entry still lands.
	c.Set("101", "/logs/a.out", "")
	_, ok := c.Get("101")
	assert.True(t, ok)
}
