package cache

import (
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"PolicyScanner/internal/domain"
	"PolicyScanner/internal/ports"
)

// DefaultTTL bounds how long a cached analysis stays valid.
const DefaultTTL = 30 * 24 * time.Hour

// entry is the on-disk record shape. Result stays raw until Get so a
// corrupt payload degrades to a miss instead of poisoning the index.
type entry struct {
	Result    json.RawMessage `json:"result"`
	Timestamp string          `json:"timestamp"`
	TextHash  string          `json:"text_hash,omitempty"`
}

// Cache is a TTL-bound analysis cache mirrored to a single JSON file.
// The in-memory index is authoritative; every mutation rewrites the file
// before the call returns, so the two views never diverge for longer than
// one call. Safe for concurrent use.
type Cache struct {
	path   string
	ttl    time.Duration
	logger *slog.Logger

	mu      sync.RWMutex
	entries map[string]entry
}

var _ ports.AnalysisCache = (*Cache)(nil)

// New loads the durable file at path into a fresh cache. A missing or
// malformed file yields an empty cache; startup never fails on cache state.
func New(path string, ttl time.Duration, logger *slog.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{
		path:    path,
		ttl:     ttl,
		logger:  logger,
		entries: map[string]entry{},
	}
	c.load()
	return c
}

func (c *Cache) load() {
	raw, err := os.ReadFile(c.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			c.warn("cannot read cache file", "path", c.path, "error", err)
		}
		return
	}

	var entries map[string]entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		c.warn("cache file corrupted, resetting", "path", c.path, "error", err)
		return
	}
	if entries != nil {
		c.entries = entries
	}
}

// Get returns the cached result for key. An expired entry is evicted and
// the durable file resynced before Get returns absent. An entry whose
// payload no longer decodes into a valid result is logged and treated as a
// miss, never surfaced as an error.
func (c *Cache) Get(key string) (domain.AnalysisResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ent, ok := c.entries[key]
	if !ok {
		return domain.AnalysisResult{}, false
	}

	storedAt, err := time.Parse(time.RFC3339Nano, ent.Timestamp)
	if err != nil {
		c.warn("cache entry has invalid timestamp", "key", key, "error", err)
		return domain.AnalysisResult{}, false
	}

	if time.Since(storedAt) > c.ttl {
		delete(c.entries, key)
		c.persistLocked()
		return domain.AnalysisResult{}, false
	}

	var result domain.AnalysisResult
	if err := json.Unmarshal(ent.Result, &result); err != nil {
		c.warn("cannot decode cached result", "key", key, "error", err)
		return domain.AnalysisResult{}, false
	}
	if err := result.Validate(); err != nil {
		c.warn("cached result failed validation", "key", key, "error", err)
		return domain.AnalysisResult{}, false
	}

	return result, true
}

// Set stores result under key, overwriting any prior entry, then persists.
// A persist failure is logged and swallowed: the in-memory write stands and
// the cache stays correct for the current process lifetime.
func (c *Cache) Set(key string, result domain.AnalysisResult) {
	payload, err := json.Marshal(result)
	if err != nil {
		c.warn("cannot encode result for cache", "key", key, "error", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{
		Result:    payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		TextHash:  key,
	}
	c.persistLocked()
}

// Clear drops every entry and persists the empty index.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = map[string]entry{}
	c.persistLocked()
}

// Size reports the raw index count, possibly-expired entries included.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// persistLocked rewrites the durable file. Callers must hold the write
// lock; holding it across the write is what gives read-your-writes to
// every other goroutine.
func (c *Cache) persistLocked() {
	raw, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		c.warn("cannot encode cache index", "error", err)
		return
	}

	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			c.warn("cannot create cache directory", "dir", dir, "error", err)
			return
		}
	}

	if err := os.WriteFile(c.path, raw, 0o644); err != nil {
		c.warn("cannot write cache file", "path", c.path, "error", err)
	}
}

func (c *Cache) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
