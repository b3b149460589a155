package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/exile-economy/market-data/internal/model"
)

// diskEntry is one slot in the cache file.
type diskEntry struct {
	CachedAt float64        `json:"cached_at"`
	Snapshot snapshotRecord `json:"snapshot"`
}

// DiskStore keeps the cache in a single JSON file. Expired and unreadable
// slots are dropped on load; every mutation rewrites the file.
type DiskStore struct {
	path string
	ttl  time.Duration

	mu      sync.Mutex
	entries map[string]diskEntry
}

// NewDiskStore opens or creates the cache file at path. A ttl of 0 disables
// expiry. A missing or corrupt file is treated as empty, never as an error.
func NewDiskStore(path string, ttl time.Duration) *DiskStore {
	if ttl < 0 {
		ttl = 0
	}
	s := &DiskStore{path: path, ttl: ttl, entries: make(map[string]diskEntry)}
	s.load()
	return s
}

func (s *DiskStore) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return
	}
	var payload map[string]diskEntry
	if json.Unmarshal(data, &payload) != nil {
		return
	}
	now := unixNow()
	for key, entry := range payload {
		if s.expired(entry.CachedAt, now) {
			continue
		}
		s.entries[normalizeKey(key)] = entry
	}
}

// save rewrites the cache file. Caller holds the lock.
func (s *DiskStore) save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	data, err := json.Marshal(s.entries)
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write cache: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace cache: %w", err)
	}
	return nil
}

func (s *DiskStore) expired(cachedAt, now float64) bool {
	return s.ttl != 0 && now-cachedAt >= s.ttl.Seconds()
}

func (s *DiskStore) Get(_ context.Context, key string) (*model.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	normalized := normalizeKey(key)
	entry, ok := s.entries[normalized]
	if !ok {
		return nil, false
	}
	if s.expired(entry.CachedAt, unixNow()) {
		delete(s.entries, normalized)
		// Best effort; a failed rewrite is retried on the next mutation.
		_ = s.save()
		return nil, false
	}
	return decodeSnapshot(entry.Snapshot), true
}

func (s *DiskStore) Set(_ context.Context, key string, snap *model.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[normalizeKey(key)] = diskEntry{
		CachedAt: unixNow(),
		Snapshot: encodeSnapshot(snap),
	}
	return s.save()
}

func (s *DiskStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	normalized := normalizeKey(key)
	if _, ok := s.entries[normalized]; !ok {
		return nil
	}
	delete(s.entries, normalized)
	return s.save()
}

func (s *DiskStore) Items(_ context.Context) (map[string]*model.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := unixNow()
	items := make(map[string]*model.Snapshot)
	pruned := false
	for key, entry := range s.entries {
		if s.expired(entry.CachedAt, now) {
			delete(s.entries, key)
			pruned = true
			continue
		}
		items[key] = decodeSnapshot(entry.Snapshot)
	}
	if pruned {
		if err := s.save(); err != nil {
			return items, err
		}
	}
	return items, nil
}

func unixNow() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Second)
}
