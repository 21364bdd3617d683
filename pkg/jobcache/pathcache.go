// Package jobcache implements the three persistent, TTL-bounded caches
// the dashboard keeps across restarts: resolved output paths, archived
// submission scripts, and pinned-job markers.
//
// Each cache is independently owned and independently persisted through
// an injected kvstore.Store. Every mutation persists the full map
// synchronously before returning so abrupt termination cannot lose
// state; a persistence failure is logged and the operation proceeds
// without caching rather than failing the caller.
package jobcache

import (
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/slurmdeck/slurmdeck/pkg/kvstore"
)

// DefaultPathTTL bounds how long resolved output paths are kept.
const DefaultPathTTL = 30 * 24 * time.Hour

// PathEntry is one cached pair of resolved output paths.
type PathEntry struct {
	Stdout   string    `json:"stdout"`
	Stderr   string    `json:"stderr"`
	CachedAt time.Time `json:"cached_at"`
}

// PathCache remembers resolved stdout/stderr paths per job id.
type PathCache struct {
	store kvstore.Store
	ttl   time.Duration
	log   *zap.Logger

	mu      sync.Mutex
	entries map[string]PathEntry
	now     func() time.Time
}

// NewPathCache loads the persisted map and purges entries older than
// ttl in one synchronous pass, persisting the result if anything was
// removed. ttl <= 0 uses DefaultPathTTL.
func NewPathCache(store kvstore.Store, ttl time.Duration, log *zap.Logger) *PathCache {
	if ttl <= 0 {
		ttl = DefaultPathTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	c := &PathCache{
		store:   store,
		ttl:     ttl,
		log:     log,
		entries: map[string]PathEntry{},
		now:     time.Now,
	}
	c.load()
	return c
}

func (c *PathCache) load() {
	raw, err := c.store.LoadAll()
	if err != nil {
		c.log.Warn("path cache load failed, starting empty", zap.Error(err))
		return
	}

	changed := false
	cutoff := c.now().Add(-c.ttl)
	for id, data := range raw {
		var e PathEntry
		if err := json.Unmarshal(data, &e); err != nil {
			changed = true
			continue
		}
		if e.CachedAt.Before(cutoff) {
			changed = true
			continue
		}
		c.entries[id] = e
	}
	if changed {
		c.persist()
	}
}

// Set remembers the resolved paths for a job. Storing a pair where
// both paths are unresolved is a no-op: such an entry carries no
// information worth persisting.
func (c *PathCache) Set(id, stdout, stderr string) {
	if !resolved(stdout) && !resolved(stderr) {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[id] = PathEntry{Stdout: stdout, Stderr: stderr, CachedAt: c.now()}
	c.persist()
}

// Get returns the cached paths for a job, if present.
func (c *PathCache) Get(id string) (PathEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[id]
	return e, ok
}

// Len reports the number of cached entries.
func (c *PathCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// persist writes the full map through the store. Callers hold c.mu.
func (c *PathCache) persist() {
	raw := make(map[string]json.RawMessage, len(c.entries))
	for id, e := range c.entries {
		b, err := json.Marshal(e)
		if err != nil {
			continue
		}
		raw[id] = b
	}
	if err := c.store.SaveAll(raw); err != nil {
		c.log.Warn("path cache persist failed", zap.Error(err))
	}
}

func resolved(path string) bool {
	return path != "" && path != "N/A"
}
