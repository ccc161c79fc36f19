package httputil

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"
)

// ErrExpired is returned by [Cache.Get] when a cached entry exists but has
// exceeded its time-to-live.
//
// The data is still on disk, just stale. [Fetcher] exploits this: an expired
// response still carries its ETag, so the next request can be conditional
// and a 304 revalidates the entry without re-downloading it.
//
// Use errors.Is to check for this error:
//
//	ok, err := cache.Get("key", &value)
//	if errors.Is(err, httputil.ErrExpired) {
//	    // Refetch, ideally with the stale validators attached.
//	}
var ErrExpired = errors.New("cache entry expired")

// Cache provides file-based caching of arbitrary JSON-marshalable data.
//
// Each entry is stored as a JSON file whose name is the SHA-256 hash of the
// cache key, so keys may contain URLs, slashes, or anything else without
// escaping. Entries expire by file modification time; a TTL of 0 means they
// never expire.
//
// Cache operations are not goroutine-safe. Multiple Cache instances (even in
// different processes) can share a directory, since each operation is a
// single atomic file read or write.
//
// Use [Cache.Namespace] to create scoped views that automatically prefix
// keys, keeping different producers out of each other's way:
//
//	remote := cache.Namespace("remote:")
//	runs := cache.Namespace("run:")
type Cache struct {
	dir    string
	ttl    time.Duration
	prefix string
}

// NewCache creates a Cache that stores entries in dir with the given TTL.
// An empty dir selects ~/.cache/stackflow/. The directory is created if it
// does not exist; directory creation is the only possible failure.
func NewCache(dir string, ttl time.Duration) (*Cache, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(home, ".cache", "stackflow")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{dir: dir, ttl: ttl, prefix: ""}, nil
}

// Dir returns the absolute path to the cache directory.
func (c *Cache) Dir() string { return c.dir }

// TTL returns the time-to-live for cache entries. 0 means entries never
// expire.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Get retrieves a cached value by key and unmarshals it into v.
//
// The three outcomes are distinguishable:
//   - (true, nil): hit, v populated.
//   - (false, nil): no entry, v unchanged.
//   - (false, ErrExpired): entry exists but exceeded its TTL, v unchanged.
//
// Any other error is an I/O or decoding failure. Get never touches
// modification times; reads do not refresh the TTL.
func (c *Cache) Get(key string, v any) (bool, error) {
	path := c.keyPath(c.prefix + key)
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if c.ttl > 0 && time.Since(info.ModTime()) > c.ttl {
		return false, ErrExpired
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(data, v)
}

// GetStale is Get without the TTL check: an expired entry is still returned.
// Used to recover validators and bodies for conditional revalidation.
func (c *Cache) GetStale(key string, v any) (bool, error) {
	data, err := os.ReadFile(c.keyPath(c.prefix + key))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(data, v)
}

// Set stores a value under key, overwriting any existing entry and resetting
// its TTL. The value must be JSON-marshalable.
func (c *Cache) Set(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(c.keyPath(c.prefix+key), data, 0o644)
}

// Delete removes the entry for key. Removing a missing entry is not an
// error.
func (c *Cache) Delete(key string) error {
	err := os.Remove(c.keyPath(c.prefix + key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Namespace returns a view of the cache that prefixes every key with prefix.
// The view shares the parent's directory and TTL, and namespaces can be
// chained:
//
//	cache.Namespace("remote:").Namespace("etag:")
//
// An empty prefix is valid and behaves like the parent.
func (c *Cache) Namespace(prefix string) *Cache {
	return &Cache{
		dir:    c.dir,
		ttl:    c.ttl,
		prefix: c.prefix + prefix,
	}
}

func (c *Cache) keyPath(key string) string {
	h := sha256.Sum256([]byte(key))
	return filepath.Join(c.dir, hex.EncodeToString(h[:]))
}
