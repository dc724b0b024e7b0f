package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwk"
)

// keyCache holds the signing keys published at a JWKS endpoint.
// The set is refetched at most once per minInterval; a failed refetch keeps the previous set.
type keyCache struct {
	mu sync.RWMutex

	url         string
	minInterval time.Duration

	set       jwk.Set
	fetchedAt time.Time
}

func newKeyCache(url string, minInterval time.Duration) *keyCache {
	return &keyCache{url: url, minInterval: minInterval}
}

func (c *keyCache) fresh() bool {
	return c.set != nil && time.Since(c.fetchedAt) < c.minInterval
}

func (c *keyCache) get(ctx context.Context) (jwk.Set, error) {
	c.mu.RLock()
	if c.fresh() {
		set := c.set
		c.mu.RUnlock()
		return set, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	// another goroutine may have refreshed while we waited
	if c.fresh() {
		return c.set, nil
	}
	set, err := jwk.Fetch(ctx, c.url)
	if err != nil {
		if c.set != nil {
			return c.set, nil
		}
		return nil, fmt.Errorf("failed to fetch JWKS from %s: %w", c.url, err)
	}
	c.set = set
	c.fetchedAt = time.Now()
	return set, nil
}
