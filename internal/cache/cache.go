// Package cache stores generated loops on disk so repeated prompts skip
// the backend round trip.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// formatVersion invalidates old entries when the on-disk layout or the
// stream decoding changes.
const formatVersion = 1

// LoopCache manages cached generation results
type LoopCache struct {
	dir string
}

// CachedLoop describes one cache hit
type CachedLoop struct {
	Path     string
	CacheKey string
	CachedAt time.Time
}

// New creates a loop cache under the user cache directory, falling back to
// a local .cache directory when none is available.
func New() (*LoopCache, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		base = ".cache"
	}
	dir := filepath.Join(base, "sampleseq", "loops")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &LoopCache{dir: dir}, nil
}

// NewAt creates a loop cache rooted at an explicit directory.
func NewAt(dir string) (*LoopCache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &LoopCache{dir: dir}, nil
}

// Key derives the cache key for a prompt and tempo.
func Key(prompt string, bpm float64) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s|%g|%d", prompt, bpm, formatVersion)))
	return hex.EncodeToString(h[:])[:16]
}

// Get retrieves a cached loop for the given key
func (c *LoopCache) Get(key string) (*CachedLoop, bool) {
	path := filepath.Join(c.dir, key+".wav")
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil, false
	}
	return &CachedLoop{Path: path, CacheKey: key, CachedAt: info.ModTime()}, true
}

// Put copies a loop WAV into the cache
func (c *LoopCache) Put(key, srcPath string) (*CachedLoop, error) {
	data, err := os.ReadFile(srcPath)
	if err != nil {
		return nil, fmt.Errorf("read loop: %w", err)
	}
	dst := filepath.Join(c.dir, key+".wav")
	if err := os.WriteFile(dst, data, 0644); err != nil {
		return nil, fmt.Errorf("cache loop: %w", err)
	}
	return &CachedLoop{Path: dst, CacheKey: key, CachedAt: time.Now()}, nil
}

// Clear removes all cached loops
func (c *LoopCache) Clear() error {
	return os.RemoveAll(c.dir)
}

// Size returns the total size of cached loops in bytes and their count
func (c *LoopCache) Size() (int64, int, error) {
	var totalSize int64
	var count int

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, 0, nil
		}
		return 0, 0, err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		totalSize += info.Size()
		count++
	}
	return totalSize, count, nil
}
