package jobcache

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/slurmdeck/slurmdeck/pkg/kvstore"
)

// DefaultScriptTTL bounds how long archived submission scripts are kept.
const DefaultScriptTTL = 30 * 24 * time.Hour

// ScriptEntry tracks one archived submission-script copy.
type ScriptEntry struct {
	OriginalPath string    `json:"original_path"`
	ArchivePath  string    `json:"archive_path"`
	CachedAt     time.Time `json:"cached_at"`
}

// ScriptCache archives copies of submission scripts so they survive
// the job's working files being edited or deleted. Archiving is
// idempotent per job id: a second attempt returns the existing copy
// without touching the filesystem.
type ScriptCache struct {
	store      kvstore.Store
	archiveDir string
	ttl        time.Duration
	log        *zap.Logger

	mu      sync.Mutex
	entries map[string]ScriptEntry
	now     func() time.Time
}

var unsafeIDChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// NewScriptCache loads persisted entries and purges anything older
// than ttl, deleting the purged entries' archived files along with
// their metadata. ttl <= 0 uses DefaultScriptTTL.
func NewScriptCache(store kvstore.Store, archiveDir string, ttl time.Duration, log *zap.Logger) *ScriptCache {
	if ttl <= 0 {
		ttl = DefaultScriptTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	c := &ScriptCache{
		store:      store,
		archiveDir: archiveDir,
		ttl:        ttl,
		log:        log,
		entries:    map[string]ScriptEntry{},
		now:        time.Now,
	}
	c.load()
	return c
}

func (c *ScriptCache) load() {
	raw, err := c.store.LoadAll()
	if err != nil {
		c.log.Warn("script cache load failed, starting empty", zap.Error(err))
		return
	}

	changed := false
	cutoff := c.now().Add(-c.ttl)
	for id, data := range raw {
		var e ScriptEntry
		if err := json.Unmarshal(data, &e); err != nil {
			changed = true
			continue
		}
		if e.CachedAt.Before(cutoff) {
			if err := os.Remove(e.ArchivePath); err != nil && !os.IsNotExist(err) {
				c.log.Warn("failed to delete expired script archive",
					zap.String("path", e.ArchivePath),
					zap.Error(err))
			}
			changed = true
			continue
		}
		c.entries[id] = e
	}
	if changed {
		c.persist()
	}
}

// Cache archives the submission script for a job and returns the
// archive path. Repeat calls for the same id return the first result
// without re-copying. A missing original or a failed copy is a soft
// failure: logged, empty result, caller proceeds without an archive.
func (c *ScriptCache) Cache(id, originalPath string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[id]; ok {
		return e.ArchivePath, true
	}
	if !resolved(originalPath) {
		return "", false
	}

	archivePath, err := c.copyScript(id, originalPath)
	if err != nil {
		c.log.Warn("script archive failed",
			zap.String("job_id", id),
			zap.String("script", originalPath),
			zap.Error(err))
		return "", false
	}

	c.entries[id] = ScriptEntry{
		OriginalPath: originalPath,
		ArchivePath:  archivePath,
		CachedAt:     c.now(),
	}
	c.persist()
	return archivePath, true
}

// Get returns the archived entry for a job, if one exists.
func (c *ScriptCache) Get(id string) (ScriptEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[id]
	return e, ok
}

// copyScript copies the original into the archive dir. The filename
// embeds a sanitized job id, a capture timestamp, and the original
// extension so a reused job id never collides with an older archive.
func (c *ScriptCache) copyScript(id, originalPath string) (string, error) {
	src, err := os.Open(originalPath)
	if err != nil {
		return "", fmt.Errorf("open script: %w", err)
	}
	defer func() { _ = src.Close() }()

	if err := os.MkdirAll(c.archiveDir, 0o755); err != nil {
		return "", fmt.Errorf("create archive dir: %w", err)
	}

	name := fmt.Sprintf("%s_%d%s",
		unsafeIDChars.ReplaceAllString(id, "_"),
		c.now().UnixMilli(),
		filepath.Ext(originalPath))
	archivePath := filepath.Join(c.archiveDir, name)

	dst, err := os.Create(archivePath)
	if err != nil {
		return "", fmt.Errorf("create archive: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(archivePath)
		return "", fmt.Errorf("copy script: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("close archive: %w", err)
	}
	return archivePath, nil
}

func (c *ScriptCache) persist() {
	raw := make(map[string]json.RawMessage, len(c.entries))
	for id, e := range c.entries {
		b, err := json.Marshal(e)
		if err != nil {
			continue
		}
		raw[id] = b
	}
	if err := c.store.SaveAll(raw); err != nil {
		c.log.Warn("script cache persist failed", zap.Error(err))
	}
}
