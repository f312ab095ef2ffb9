package route

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/example/ride-tracking/internal/models"
	"github.com/example/ride-tracking/internal/observability"
)

// Cache stores provider paths keyed by Request.Key.
type Cache interface {
	Get(ctx context.Context, key string) ([]models.GeoPoint, bool)
	Set(ctx context.Context, key string, path []models.GeoPoint)
}

// MemoryCache is a tiny in-process cache with a fixed TTL.
type MemoryCache struct {
	mu    sync.RWMutex
	store map[string]cacheEntry
	ttl   time.Duration
}

type cacheEntry struct {
	path []models.GeoPoint
	ts   time.Time
}

// NewMemoryCache creates a cache with the provided TTL.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{store: make(map[string]cacheEntry), ttl: ttl}
}

// Get returns cached value and true if present and not expired.
func (c *MemoryCache) Get(_ context.Context, key string) ([]models.GeoPoint, bool) {
	c.mu.RLock()
	e, ok := c.store[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Since(e.ts) > c.ttl {
		c.mu.Lock()
		delete(c.store, key)
		c.mu.Unlock()
		return nil, false
	}
	return e.path, true
}

// Set stores a value in the cache.
func (c *MemoryCache) Set(_ context.Context, key string, path []models.GeoPoint) {
	c.mu.Lock()
	c.store[key] = cacheEntry{path: path, ts: time.Now()}
	c.mu.Unlock()
}

// DefaultSharedTimeout bounds a coalesced provider call.
const DefaultSharedTimeout = 10 * time.Second

// CachedDirections wraps a provider with a cache and coalesces identical
// in-flight lookups, since every viewer of a ride asks for the same route.
// The shared call is detached from any single caller's cancellation; each
// caller still stops waiting when its own context ends.
type CachedDirections struct {
	Next  Directions
	Cache Cache
	// Timeout bounds the shared call; DefaultSharedTimeout when zero.
	Timeout time.Duration

	group singleflight.Group
}

func NewCachedDirections(next Directions, cache Cache) *CachedDirections {
	return &CachedDirections{Next: next, Cache: cache, Timeout: DefaultSharedTimeout}
}

func (c *CachedDirections) Route(ctx context.Context, req Request) ([]models.GeoPoint, error) {
	key := req.Key()
	if c.Cache != nil {
		if pts, ok := c.Cache.Get(ctx, key); ok {
			observability.DirectionsTotal.WithLabelValues("cache_hit").Inc()
			return pts, nil
		}
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultSharedTimeout
	}
	ch := c.group.DoChan(key, func() (any, error) {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()
		pts, err := c.Next.Route(sctx, req)
		if err != nil {
			return nil, err
		}
		if c.Cache != nil && len(pts) >= 2 {
			c.Cache.Set(sctx, key, pts)
		}
		return pts, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]models.GeoPoint), nil
	}
}
