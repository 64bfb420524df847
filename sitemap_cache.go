package main

import (
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const cacheKey = "sitemap"

// SitemapCache holds the last merge result with its generation timestamp.
// Stale or missing values are regenerated through singleflight so at most one
// regeneration is in flight regardless of concurrent callers.
type SitemapCache struct {
	TTL    time.Duration
	Logger Logger

	mu          sync.RWMutex
	result      *MergeResult
	generatedAt time.Time
	group       singleflight.Group
}

// Get returns the cached merge result, regenerating through regenerate when
// the value is missing or older than the TTL.
func (c *SitemapCache) Get(regenerate func() (*MergeResult, error)) (*MergeResult, error) {
	c.mu.RLock()
	if c.result != nil && time.Since(c.generatedAt) < c.TTL {
		cached := c.result
		c.mu.RUnlock()
		return cached, nil
	}
	c.mu.RUnlock()

	v, err, shared := c.group.Do(cacheKey, func() (interface{}, error) {
		result, err := regenerate()
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.result = result
		c.generatedAt = time.Now()
		c.mu.Unlock()
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.Logger.Debug("sitemap regeneration shared with a concurrent request")
	}
	return v.(*MergeResult), nil
}

// Invalidate discards the cached document so the next request regenerates.
func (c *SitemapCache) Invalidate() {
	c.mu.Lock()
	c.result = nil
	c.mu.Unlock()
	c.Logger.Info("sitemap cache invalidated")
}
