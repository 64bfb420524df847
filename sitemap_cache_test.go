package main

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(ttl time.Duration) *SitemapCache {
	return &SitemapCache{TTL: ttl, Logger: &StdoutLogger{Component: "cache-test"}}
}

func TestCacheGet_RegeneratesOnFirstUse(t *testing.T) {
	t.Parallel()
	cache := newTestCache(time.Hour)

	result, err := cache.Get(func() (*MergeResult, error) {
		return &MergeResult{XML: "<doc/>", EntryCount: 1}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "<doc/>", result.XML)
}

func TestCacheGet_FreshValueSkipsRegeneration(t *testing.T) {
	t.Parallel()
	cache := newTestCache(time.Hour)

	calls := 0
	regenerate := func() (*MergeResult, error) {
		calls++
		return &MergeResult{XML: "<doc/>"}, nil
	}

	_, err := cache.Get(regenerate)
	require.NoError(t, err)
	_, err = cache.Get(regenerate)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestCacheGet_ExpiredValueRegenerates(t *testing.T) {
	t.Parallel()
	cache := newTestCache(10 * time.Millisecond)

	calls := 0
	regenerate := func() (*MergeResult, error) {
		calls++
		return &MergeResult{XML: "<doc/>"}, nil
	}

	_, _ = cache.Get(regenerate)
	time.Sleep(30 * time.Millisecond)
	_, _ = cache.Get(regenerate)
	assert.Equal(t, 2, calls)
}

func TestCacheGet_ConcurrentCallersShareOneRegeneration(t *testing.T) {
	t.Parallel()
	cache := newTestCache(time.Hour)

	var calls atomic.Int32
	regenerate := func() (*MergeResult, error) {
		calls.Add(1)
		time.Sleep(50 * time.Millisecond)
		return &MergeResult{XML: "<doc/>"}, nil
	}

	wg := &sync.WaitGroup{}
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := cache.Get(regenerate)
			assert.NoError(t, err)
			assert.Equal(t, "<doc/>", result.XML)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
}

func TestCacheGet_ErrorsAreNotCached(t *testing.T) {
	t.Parallel()
	cache := newTestCache(time.Hour)

	_, err := cache.Get(func() (*MergeResult, error) {
		return nil, errors.New("upstream down")
	})
	require.Error(t, err)

	result, err := cache.Get(func() (*MergeResult, error) {
		return &MergeResult{XML: "<recovered/>"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "<recovered/>", result.XML)
}

func TestCacheInvalidate_ForcesRegeneration(t *testing.T) {
	t.Parallel()
	cache := newTestCache(time.Hour)

	calls := 0
	regenerate := func() (*MergeResult, error) {
		calls++
		return &MergeResult{XML: "<doc/>"}, nil
	}

	_, _ = cache.Get(regenerate)
	cache.Invalidate()
	_, _ = cache.Get(regenerate)
	assert.Equal(t, 2, calls)
}
