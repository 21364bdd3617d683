package jobcache

import (
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/slurmdeck/slurmdeck/pkg/kvstore"
)

// DefaultPinStale is the window after which a pin whose job has left
// the active set may be removed.
const DefaultPinStale = 7 * 24 * time.Hour

// PinCache remembers which jobs the operator has pinned. Pins have no
// absolute maximum age: a pin is removed only when its job is absent
// from the current active set AND the pin has outlived the staleness
// window, so pins on long-running jobs survive indefinitely.
type PinCache struct {
	store kvstore.Store
	stale time.Duration
	log   *zap.Logger

	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

// NewPinCache loads the persisted pin set. Unlike the other caches
// there is no construction-time age purge: staleness can only be
// judged against an active-job snapshot, which the caller supplies
// later via CleanupStale. stale <= 0 uses DefaultPinStale.
func NewPinCache(store kvstore.Store, stale time.Duration, log *zap.Logger) *PinCache {
	if stale <= 0 {
		stale = DefaultPinStale
	}
	if log == nil {
		log = zap.NewNop()
	}
	c := &PinCache{
		store:   store,
		stale:   stale,
		log:     log,
		entries: map[string]time.Time{},
		now:     time.Now,
	}
	c.load()
	return c
}

func (c *PinCache) load() {
	raw, err := c.store.LoadAll()
	if err != nil {
		c.log.Warn("pin cache load failed, starting empty", zap.Error(err))
		return
	}
	for id, data := range raw {
		var t time.Time
		if err := json.Unmarshal(data, &t); err != nil {
			continue
		}
		c.entries[id] = t
	}
}

// Pin marks a job as pinned. Re-pinning refreshes the timestamp.
func (c *PinCache) Pin(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[id] = c.now()
	c.persist()
}

// Unpin removes a pin. Unpinning an unpinned job is a no-op.
func (c *PinCache) Unpin(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[id]; !ok {
		return
	}
	delete(c.entries, id)
	c.persist()
}

// IsPinned reports whether a job is pinned.
func (c *PinCache) IsPinned(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[id]
	return ok
}

// Pinned returns the pinned job ids.
func (c *PinCache) Pinned() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.entries))
	for id := range c.entries {
		ids = append(ids, id)
	}
	return ids
}

// CleanupStale removes pins for jobs absent from the given active
// snapshot, but only once the pin has outlived the staleness window.
// Pins for jobs still active, or recently pinned, are never removed.
func (c *PinCache) CleanupStale(activeIDs []string) {
	active := make(map[string]struct{}, len(activeIDs))
	for _, id := range activeIDs {
		active[id] = struct{}{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := c.now().Add(-c.stale)
	changed := false
	for id, pinnedAt := range c.entries {
		if _, ok := active[id]; ok {
			continue
		}
		if pinnedAt.After(cutoff) {
			continue
		}
		delete(c.entries, id)
		changed = true
	}
	if changed {
		c.persist()
	}
}

func (c *PinCache) persist() {
	raw := make(map[string]json.RawMessage, len(c.entries))
	for id, t := range c.entries {
		b, err := json.Marshal(t)
		if err != nil {
			continue
		}
		raw[id] = b
	}
	if err := c.store.SaveAll(raw); err != nil {
		c.log.Warn("pin cache persist failed", zap.Error(err))
	}
}
