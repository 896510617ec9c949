package generators

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/hyeonnnnn/MBTIMatchplay/internal/interfaces"
)

// ErrCacheMiss is returned by Get for unknown or expired keys
var ErrCacheMiss = errors.New("cache miss")

// CacheEntry represents a cached image
type CacheEntry struct {
	Key          string                 `json:"key"`
	FilePath     string                 `json:"file_path"`
	Prompt       string                 `json:"prompt"`
	Backend      string                 `json:"backend"`
	CreatedAt    time.Time              `json:"created_at"`
	LastAccessed time.Time              `json:"last_accessed"`
	Hits         int                    `json:"hits"`
	FileSize     int64                  `json:"file_size"`
	Metadata     map[string]interface{} `json:"metadata"`
}

// ImageCache keeps rendered images on disk with a JSON sidecar per entry
type ImageCache struct {
	entries    map[string]*CacheEntry
	directory  string
	maxEntries int
	ttl        time.Duration
	mu         sync.RWMutex
	stats      *CacheStats
}

// CacheStats holds statistics about cache performance
type CacheStats struct {
	Hits         int64   `json:"hits"`
	Misses       int64   `json:"misses"`
	HitRate      float64 `json:"hit_rate"`
	TotalEntries int     `json:"total_entries"`
	TotalSize    int64   `json:"total_size"`
}

// NewImageCache creates a new image cache. A zero ttl never expires entries.
func NewImageCache(directory string, maxEntries int, ttl time.Duration) *ImageCache {
	return &ImageCache{
		entries:    make(map[string]*CacheEntry),
		directory:  directory,
		maxEntries: maxEntries,
		ttl:        ttl,
		stats:      &CacheStats{},
	}
}

// Initialize loads existing cache entries from disk
func (c *ImageCache) Initialize(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(c.directory, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	files, err := os.ReadDir(c.directory)
	if err != nil {
		return fmt.Errorf("failed to read cache directory: %w", err)
	}

	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".meta") {
			continue
		}

		metaPath := filepath.Join(c.directory, f.Name())
		metaData, err := os.ReadFile(metaPath)
		if err != nil {
			continue
		}

		var entry CacheEntry
		if err := json.Unmarshal(metaData, &entry); err != nil {
			continue
		}

		if c.expired(&entry) {
			_ = os.Remove(entry.FilePath)
			_ = os.Remove(metaPath)
			continue
		}
		if _, err := os.Stat(entry.FilePath); err != nil {
			_ = os.Remove(metaPath)
			continue
		}

		c.entries[entry.Key] = &entry
		c.stats.TotalEntries++
		c.stats.TotalSize += entry.FileSize
	}

	return nil
}

// Get retrieves an image from cache
func (c *ImageCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		c.miss()
		return nil, fmt.Errorf("%w: %s", ErrCacheMiss, key)
	}

	if c.expired(entry) {
		c.remove(key, entry)
		c.miss()
		return nil, fmt.Errorf("%w: %s expired", ErrCacheMiss, key)
	}

	data, err := os.ReadFile(entry.FilePath)
	if err != nil {
		c.remove(key, entry)
		c.miss()
		return nil, fmt.Errorf("%w: failed to read cached file: %v", ErrCacheMiss, err)
	}

	entry.LastAccessed = time.Now()
	entry.Hits++
	c.stats.Hits++
	c.updateHitRate()
	portraitCacheLookups.WithLabelValues("hit").Inc()

	return data, nil
}

// Put stores an image in cache
func (c *ImageCache) Put(ctx context.Context, key string, data []byte, backend string, req *interfaces.ImageRequest) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	filePath := filepath.Join(c.directory, key+".png")
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write image: %w", err)
	}

	now := time.Now()
	entry := &CacheEntry{
		Key:          key,
		FilePath:     filePath,
		Prompt:       req.Prompt,
		Backend:      backend,
		CreatedAt:    now,
		LastAccessed: now,
		FileSize:     int64(len(data)),
		Metadata: map[string]interface{}{
			"width":  req.Width,
			"height": req.Height,
			"seed":   req.Seed,
		},
	}

	metaData, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := os.WriteFile(filePath+".meta", metaData, 0644); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}

	if old, ok := c.entries[key]; ok {
		c.stats.TotalEntries--
		c.stats.TotalSize -= old.FileSize
	}
	c.entries[key] = entry
	c.stats.TotalEntries++
	c.stats.TotalSize += entry.FileSize

	for c.maxEntries > 0 && len(c.entries) > c.maxEntries {
		c.evictOldest()
	}

	return nil
}

// CleanExpired removes expired entries from cache
func (c *ImageCache) CleanExpired(ctx context.Context) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for key, entry := range c.entries {
		if c.expired(entry) {
			c.remove(key, entry)
			count++
		}
	}
	return count
}

// GetStats returns cache statistics
func (c *ImageCache) GetStats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return *c.stats
}

func (c *ImageCache) expired(entry *CacheEntry) bool {
	return c.ttl > 0 && time.Since(entry.CreatedAt) > c.ttl
}

// remove deletes the files and the index entry; callers hold the lock
func (c *ImageCache) remove(key string, entry *CacheEntry) {
	_ = os.Remove(entry.FilePath)
	_ = os.Remove(entry.FilePath + ".meta")
	delete(c.entries, key)
	c.stats.TotalEntries--
	c.stats.TotalSize -= entry.FileSize
}

func (c *ImageCache) miss() {
	c.stats.Misses++
	c.updateHitRate()
	portraitCacheLookups.WithLabelValues("miss").Inc()
}

// evictOldest removes the least recently accessed entry
func (c *ImageCache) evictOldest() {
	var oldestKey string
	var oldestTime time.Time

	for key, entry := range c.entries {
		if oldestKey == "" || entry.LastAccessed.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.LastAccessed
		}
	}

	if oldestKey != "" {
		c.remove(oldestKey, c.entries[oldestKey])
	}
}

// updateHitRate recalculates the hit rate
func (c *ImageCache) updateHitRate() {
	total := c.stats.Hits + c.stats.Misses
	if total > 0 {
		c.stats.HitRate = float64(c.stats.Hits) / float64(total)
	}
}

// GenerateCacheKey generates a cache key from the backend and request
func GenerateCacheKey(backend string, req *interfaces.ImageRequest) string {
	data := fmt.Sprintf("%s|%s|%s|%dx%d|%d",
		backend,
		req.Prompt,
		req.NegativePrompt,
		req.Width, req.Height,
		req.Seed,
	)

	hash := md5.Sum([]byte(data))
	return hex.EncodeToString(hash[:])
}
