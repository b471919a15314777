package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"resumatch/internal/config"
	"resumatch/internal/errors"

	"github.com/redis/go-redis/v9"
)

// TieredCache memoizes embeddings in two tiers: L1 in memory and an
// optional L2 in Redis. L1 is lost on restart, L2 survives it.
// Embeddings are a pure function of (model, text), so entries never go stale
// before their TTL.
type TieredCache struct {
	l1              sync.Map      // key -> *cacheEntry
	rdb             *redis.Client // nil if Redis unavailable
	ttl             time.Duration
	maxEntries      int
	cleanupInterval time.Duration

	hits   atomic.Int64
	misses atomic.Int64

	stop     chan struct{}
	stopOnce sync.Once
	logger   *errors.Logger
}

type cacheEntry struct {
	vector    []float32
	expiresAt time.Time
}

// NewTieredCache sets up the cache and starts the L1 cleanup goroutine.
// An empty or unreachable RedisURL leaves L2 disabled.
func NewTieredCache(cfg config.CacheConfig, logger *errors.Logger) *TieredCache {
	c := &TieredCache{
		ttl:             cfg.TTL,
		maxEntries:      cfg.MaxEntries,
		cleanupInterval: cfg.CleanupInterval,
		stop:            make(chan struct{}),
		logger:          logger,
	}

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Warn("cache: invalid redis URL, L2 disabled", "error", err.Error())
		} else {
			rdb := redis.NewClient(opts)
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			if err := rdb.Ping(ctx).Err(); err != nil {
				logger.Warn("cache: redis unreachable, L2 disabled", "error", err.Error())
				_ = rdb.Close()
			} else {
				c.rdb = rdb
				logger.Info("cache: L2 redis connected", "addr", opts.Addr)
			}
		}
	}

	logger.Info("cache: initialized",
		"ttl", c.ttl,
		"redis", c.rdb != nil,
		"max_entries", c.maxEntries)

	go c.cleanupLoop()
	return c
}

// CacheKey builds a deterministic cache key from parts.
func CacheKey(parts ...string) string {
	joined := strings.Join(parts, "|")
	hash := sha256.Sum256([]byte(joined))
	return fmt.Sprintf("emb:%x", hash[:12])
}

// Get tries L1, then L2. On L2 hit, populates L1. The returned vector is a
// copy the caller may modify.
func (c *TieredCache) Get(ctx context.Context, key string) ([]float32, bool) {
	if val, ok := c.l1.Load(key); ok {
		entry := val.(*cacheEntry)
		if c.ttl <= 0 || time.Now().Before(entry.expiresAt) {
			c.hits.Add(1)
			return slices.Clone(entry.vector), true
		}
		c.l1.Delete(key)
	}

	if c.rdb != nil {
		data, err := c.rdb.Get(ctx, key).Bytes()
		if err == nil {
			var vector []float32
			if json.Unmarshal(data, &vector) == nil && len(vector) > 0 {
				c.logger.Debug("cache: L2 hit", "key", key)
				c.hits.Add(1)
				c.l1.Store(key, &cacheEntry{vector: vector, expiresAt: time.Now().Add(c.ttl)})
				return slices.Clone(vector), true
			}
		}
	}

	c.misses.Add(1)
	return nil, false
}

// Set stores a copy of vector in both tiers.
func (c *TieredCache) Set(ctx context.Context, key string, vector []float32) {
	c.evictIfNeeded()
	c.l1.Store(key, &cacheEntry{vector: slices.Clone(vector), expiresAt: time.Now().Add(c.ttl)})

	if c.rdb == nil {
		return
	}
	data, err := json.Marshal(vector)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Debug("cache: L2 set failed", "error", err.Error())
	}
}

// Len returns the number of L1 entries.
func (c *TieredCache) Len() int {
	count := 0
	c.l1.Range(func(_, _ any) bool {
		count++
		return true
	})
	return count
}

// Stats returns hit/miss counters and tier status.
func (c *TieredCache) Stats() map[string]any {
	return map[string]any{
		"hits":       c.hits.Load(),
		"misses":     c.misses.Load(),
		"entries":    c.Len(),
		"redis":      c.rdb != nil,
		"maxEntries": c.maxEntries,
		"ttl":        c.ttl.String(),
	}
}

// Close stops the cleanup goroutine and the Redis client.
func (c *TieredCache) Close() error {
	var err error
	c.stopOnce.Do(func() {
		close(c.stop)
		if c.rdb != nil {
			err = c.rdb.Close()
		}
	})
	return err
}

// evictIfNeeded removes entries when L1 reaches maxEntries.
// Removes expired entries first, then oldest entries if still over limit.
func (c *TieredCache) evictIfNeeded() {
	if c.maxEntries <= 0 {
		return
	}

	count := c.Len()
	if count < c.maxEntries {
		return
	}

	if c.ttl > 0 {
		now := time.Now()
		c.l1.Range(func(key, val any) bool {
			if entry, ok := val.(*cacheEntry); ok && now.After(entry.expiresAt) {
				c.l1.Delete(key)
				count--
			}
			return count >= c.maxEntries
		})
	}

	for count >= c.maxEntries {
		var oldestKey any
		var oldestAt time.Time
		c.l1.Range(func(key, val any) bool {
			entry, ok := val.(*cacheEntry)
			// Earlier expiry = older entry (expiry = createdAt + ttl)
			if ok && (oldestKey == nil || entry.expiresAt.Before(oldestAt)) {
				oldestKey = key
				oldestAt = entry.expiresAt
			}
			return true
		})
		if oldestKey == nil {
			break
		}
		c.l1.Delete(oldestKey)
		count--
	}
}

// cleanupLoop periodically removes expired L1 entries.
func (c *TieredCache) cleanupLoop() {
	interval := c.cleanupInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if c.ttl <= 0 {
				continue
			}
			now := time.Now()
			c.l1.Range(func(key, val any) bool {
				if entry, ok := val.(*cacheEntry); ok && now.After(entry.expiresAt) {
					c.l1.Delete(key)
				}
				return true
			})
		case <-c.stop:
			return
		}
	}
}
