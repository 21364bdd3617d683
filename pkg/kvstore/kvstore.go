// Package kvstore provides the minimal key-value persistence capability
// backing the job caches: load the full map, save the full map. Cache
// logic stays storage-agnostic and is tested against the in-memory
// implementation.
package kvstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Store persists one logical map of job-id keyed entries.
type Store interface {
	// LoadAll returns the full persisted map. A store that has never
	// been written returns an empty map, not an error.
	LoadAll() (map[string]json.RawMessage, error)

	// SaveAll atomically replaces the persisted map.
	SaveAll(entries map[string]json.RawMessage) error
}

// FileStore persists a map as one JSON file per logical cache name:
//
//	<root>/<name>.json
//
// Writes go through a temp file plus rename so an interrupted write
// never leaves a truncated cache on disk.
type FileStore struct {
	root string
	name string
}

// NewFileStore creates a store for the named cache under root.
func NewFileStore(root, name string) (*FileStore, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("kvstore root dir is empty")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("kvstore name is empty")
	}
	return &FileStore{root: root, name: name}, nil
}

// Path returns the on-disk location of the store file.
func (s *FileStore) Path() string {
	return filepath.Join(s.root, s.name+".json")
}

func (s *FileStore) LoadAll() (map[string]json.RawMessage, error) {
	b, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]json.RawMessage{}, nil
		}
		return nil, fmt.Errorf("read %s cache: %w", s.name, err)
	}

	trimmed := strings.TrimSpace(string(b))
	if trimmed == "" {
		return map[string]json.RawMessage{}, nil
	}

	var entries map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &entries); err != nil {
		return nil, fmt.Errorf("parse %s cache: %w", s.name, err)
	}
	if entries == nil {
		entries = map[string]json.RawMessage{}
	}
	return entries, nil
}

func (s *FileStore) SaveAll(entries map[string]json.RawMessage) error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	if entries == nil {
		entries = map[string]json.RawMessage{}
	}
	b, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s cache: %w", s.name, err)
	}
	b = append(b, '\n')

	tmp, err := os.CreateTemp(s.root, s.name+".json.tmp.*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp cache file: %w", err)
	}

	if err := os.Rename(tmpName, s.Path()); err != nil {
		return fmt.Errorf("rename cache file: %w", err)
	}
	return nil
}

// MemStore is an in-memory Store for tests.
type MemStore struct {
	mu      sync.Mutex
	entries map[string]json.RawMessage

	// Saves counts SaveAll calls, letting tests assert persistence
	// happened (or was skipped).
	Saves int

	// FailSaves forces SaveAll to return an error when set.
	FailSaves bool
}

func NewMemStore() *MemStore {
	return &MemStore{entries: map[string]json.RawMessage{}}
}

func (s *MemStore) LoadAll() (map[string]json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]json.RawMessage, len(s.entries))
	for k, v := range s.entries {
		out[k] = v
	}
	return out, nil
}

func (s *MemStore) SaveAll(entries map[string]json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailSaves {
		return fmt.Errorf("kvstore: saves disabled")
	}
	s.Saves++
	s.entries = make(map[string]json.RawMessage, len(entries))
	for k, v := range entries {
		s.entries[k] = v
	}
	return nil
}
