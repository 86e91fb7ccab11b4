package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/adminkit/toggle/internal/models"
	"github.com/adminkit/toggle/internal/security"
)

const (
	keyCacheTTL        = 5 * time.Minute
	negativeCacheTTL   = 30 * time.Second
	maxCacheEntries    = 10000
	cacheCleanupPeriod = 60 * time.Second
)

type cachedActor struct {
	actor     *models.Actor
	fetchedAt time.Time
}

// isNegative reports whether the entry is a cached lookup failure.
func (ca cachedActor) isNegative() bool {
	return ca.actor == nil
}

func (ca cachedActor) ttl() time.Duration {
	if ca.isNegative() {
		return negativeCacheTTL
	}
	return keyCacheTTL
}

// CachedKeyLookup wraps a KeyLookup with a bounded in-memory cache keyed by
// the key fingerprint. Raw keys are never held.
type CachedKeyLookup struct {
	inner KeyLookup
	mu    sync.RWMutex
	cache map[string]cachedActor
}

// NewCachedKeyLookup creates a caching wrapper. ctx bounds the eviction goroutine.
func NewCachedKeyLookup(ctx context.Context, inner KeyLookup) *CachedKeyLookup {
	c := &CachedKeyLookup{
		inner: inner,
		cache: make(map[string]cachedActor),
	}
	go c.evictLoop(ctx)
	return c
}

func (c *CachedKeyLookup) evictLoop(ctx context.Context) {
	ticker := time.NewTicker(cacheCleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			c.evictExpired(time.Now())
			c.mu.Unlock()
		}
	}
}

// evictExpired drops stale entries. Caller must hold c.mu.
func (c *CachedKeyLookup) evictExpired(now time.Time) {
	for k, v := range c.cache {
		if now.Sub(v.fetchedAt) >= v.ttl() {
			delete(c.cache, k)
		}
	}
}

// ActorByAPIKey returns a cached actor or delegates to the inner lookup.
// Invalid keys are negatively cached so repeated guesses do not reach the database.
func (c *CachedKeyLookup) ActorByAPIKey(ctx context.Context, apiKey string) (*models.Actor, error) {
	fp := security.Fingerprint(apiKey)

	c.mu.RLock()
	entry, ok := c.cache[fp]
	if ok && time.Since(entry.fetchedAt) < entry.ttl() {
		c.mu.RUnlock()
		if entry.isNegative() {
			return nil, fmt.Errorf("cached: %w", models.ErrInvalidCredentials)
		}
		actor := *entry.actor
		return &actor, nil
	}
	c.mu.RUnlock()

	actor, err := c.inner.ActorByAPIKey(ctx, apiKey)
	if err != nil {
		// Only negative-cache a definite miss, never a backend failure.
		if errors.Is(err, models.ErrInvalidCredentials) {
			c.store(fp, nil)
		}
		return nil, err
	}

	c.store(fp, actor)

	out := *actor
	return &out, nil
}

func (c *CachedKeyLookup) store(fp string, actor *models.Actor) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.cache) >= maxCacheEntries {
		c.evictExpired(time.Now())
		for k := range c.cache {
			if len(c.cache) < maxCacheEntries {
				break
			}
			delete(c.cache, k)
		}
	}

	c.cache[fp] = cachedActor{actor: actor, fetchedAt: time.Now()}
}

// Invalidate drops any cached entry for apiKey.
func (c *CachedKeyLookup) Invalidate(apiKey string) {
	c.mu.Lock()
	delete(c.cache, security.Fingerprint(apiKey))
	c.mu.Unlock()
}
