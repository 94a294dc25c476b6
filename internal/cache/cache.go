// Package cache provides a best-effort cache for normalized analysis results,
// keyed by a digest of the submitted code and target language. Redis backs
// the cache when REDIS_URL is configured; otherwise a bounded in-memory map
// is used so single-instance deployments still benefit.
//
// Cache failures are never surfaced to callers - a broken cache degrades to
// a miss.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	"codescope/internal/analysis"
	"codescope/internal/metrics"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const maxMemEntries = 256

// ResultCache caches normalized analysis reports.
type ResultCache struct {
	redisClient *redis.Client
	ttl         time.Duration
	logger      *zap.Logger

	memMu    sync.RWMutex
	memCache map[string]memEntry
}

type memEntry struct {
	report    analysis.Report
	expiresAt time.Time
}

// New creates a cache. When redisURL is empty or unparseable the cache falls
// back to in-memory storage.
func New(redisURL string, ttl time.Duration, logger *zap.Logger) *ResultCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &ResultCache{
		ttl:      ttl,
		logger:   logger,
		memCache: make(map[string]memEntry),
	}

	if redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			logger.Warn("invalid REDIS_URL, using in-memory cache", zap.Error(err))
			return c
		}
		c.redisClient = redis.NewClient(opts)
	}
	return c
}

// Key derives the cache key for one submission.
func Key(code, targetLanguage string) string {
	sum := sha256.Sum256([]byte(targetLanguage + "\x00" + code))
	return "analysis:" + hex.EncodeToString(sum[:])
}

// Get returns a cached report, or false on a miss. Errors count as misses.
func (c *ResultCache) Get(ctx context.Context, key string) (*analysis.Report, bool) {
	if c.redisClient != nil {
		raw, err := c.redisClient.Get(ctx, key).Result()
		if err == nil {
			var report analysis.Report
			if err := json.Unmarshal([]byte(raw), &report); err == nil {
				metrics.Get().CacheHitsTotal.Inc()
				return &report, true
			}
		} else if err != redis.Nil {
			c.logger.Warn("cache read failed", zap.Error(err))
		}
		metrics.Get().CacheMissesTotal.Inc()
		return nil, false
	}

	c.memMu.RLock()
	entry, ok := c.memCache[key]
	c.memMu.RUnlock()
	if !ok || time.Now().After(entry.expiresAt) {
		metrics.Get().CacheMissesTotal.Inc()
		return nil, false
	}
	metrics.Get().CacheHitsTotal.Inc()
	report := entry.report
	return &report, true
}

// Set stores a report. Failures are logged and swallowed.
func (c *ResultCache) Set(ctx context.Context, key string, report *analysis.Report) {
	if report == nil {
		return
	}

	if c.redisClient != nil {
		raw, err := json.Marshal(report)
		if err != nil {
			c.logger.Warn("cache encode failed", zap.Error(err))
			return
		}
		if err := c.redisClient.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			c.logger.Warn("cache write failed", zap.Error(err))
		}
		return
	}

	c.memMu.Lock()
	defer c.memMu.Unlock()
	if len(c.memCache) >= maxMemEntries {
		// Evict expired entries first; drop everything if that freed nothing.
		now := time.Now()
		for k, e := range c.memCache {
			if now.After(e.expiresAt) {
				delete(c.memCache, k)
			}
		}
		if len(c.memCache) >= maxMemEntries {
			c.memCache = make(map[string]memEntry)
		}
	}
	c.memCache[key] = memEntry{report: *report, expiresAt: time.Now().Add(c.ttl)}
}

// Close releases the Redis connection when one exists.
func (c *ResultCache) Close() error {
	if c.redisClient != nil {
		return c.redisClient.Close()
	}
	return nil
}
