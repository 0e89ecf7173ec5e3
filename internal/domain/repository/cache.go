package repository

import (
	"context"
	"fmt"
	"golang.org/x/sync/singleflight"
	"risk_service/internal/domain/model"
	"sync"
	"time"
)

// sharedLookupTimeout bounds a collapsed lookup, which no longer follows any
// single caller's context.
const sharedLookupTimeout = 30 * time.Second

type cacheEntry struct {
	value     model.CrimeContext
	expiresAt time.Time
}

// CachedCrimeSource memoizes successful lookups for a short TTL. Keys are the
// normalized (municipio, estado) pair, so spelling variants share one entry.
// Stale entries are recomputed on the next request; errors are never stored.
type CachedCrimeSource struct {
	source model.CrimeDataSource
	states *model.StateResolver
	ttl     time.Duration
	timeout time.Duration
	now     func() time.Time

	mu      sync.RWMutex
	entries map[string]cacheEntry
	group   singleflight.Group
}

func NewCachedCrimeSource(source model.CrimeDataSource, states *model.StateResolver, ttl time.Duration) *CachedCrimeSource {
	return &CachedCrimeSource{
		source:  source,
		states:  states,
		ttl:     ttl,
		timeout: sharedLookupTimeout,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

func (c *CachedCrimeSource) key(municipio, estado string) string {
	state, ok := c.states.Resolve(estado)
	if !ok {
		state = model.NormalizeName(estado)
	}
	return model.NormalizeName(municipio) + "|" + state
}

func (c *CachedCrimeSource) Lookup(ctx context.Context, municipio, estado string) (model.CrimeContext, error) {
	key := c.key(municipio, estado)

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && c.now().Before(entry.expiresAt) {
		return entry.value, nil
	}

	// Общий запрос не зависит от отмены первого вызывающего.
	ch := c.group.DoChan(key, func() (interface{}, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()

		cc, err := c.source.Lookup(lctx, municipio, estado)
		if err != nil {
			return model.CrimeContext{}, err
		}
		c.mu.Lock()
		c.entries[key] = cacheEntry{value: cc, expiresAt: c.now().Add(c.ttl)}
		c.mu.Unlock()
		return cc, nil
	})

	select {
	case <-ctx.Done():
		return model.CrimeContext{}, fmt.Errorf("%w: %v", model.ErrDataSourceUnavailable, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return model.CrimeContext{}, res.Err
		}
		return res.Val.(model.CrimeContext), nil
	}
}

// Len reports the number of stored entries, stale ones included.
func (c *CachedCrimeSource) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
