// Package cache keeps recently loaded model artifacts in memory so that
// repeated predictions do not re-read the artifact directory.
package cache

import (
	"context"
	"time"

	"studentperf/domain/model"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog/log"
)

// Loader reads an artifact on a cache miss
type Loader func(ctx context.Context, name string) (*model.Artifact, error)

// Observer is notified of lookups
type Observer interface {
	CacheHit()
	CacheMiss()
}

// ModelCache is a size and age bounded cache of artifacts keyed by model
// name. Entries are invalidated explicitly whenever a name is re-saved or
// deleted.
type ModelCache struct {
	lru      *expirable.LRU[string, *model.Artifact]
	observer Observer
}

// New creates a cache holding at most size artifacts for ttl each. A size
// of zero disables caching.
func New(size int, ttl time.Duration, observer Observer) *ModelCache {
	c := &ModelCache{observer: observer}
	if size > 0 {
		c.lru = expirable.NewLRU[string, *model.Artifact](size, func(name string, _ *model.Artifact) {
			log.Debug().Str("model", name).Msg("model evicted from cache")
		}, ttl)
	}
	return c
}

// Get returns the cached artifact for name, loading it on a miss
func (c *ModelCache) Get(ctx context.Context, name string, load Loader) (*model.Artifact, error) {
	if c.lru != nil {
		if a, ok := c.lru.Get(name); ok {
			c.hit()
			return a, nil
		}
	}
	c.miss()

	a, err := load(ctx, name)
	if err != nil {
		return nil, err
	}
	if c.lru != nil {
		c.lru.Add(name, a)
	}
	return a, nil
}

// Invalidate drops name from the cache
func (c *ModelCache) Invalidate(name string) {
	if c.lru != nil {
		c.lru.Remove(name)
	}
}

// Len returns the number of cached artifacts
func (c *ModelCache) Len() int {
	if c.lru == nil {
		return 0
	}
	return c.lru.Len()
}

func (c *ModelCache) hit() {
	if c.observer != nil {
		c.observer.CacheHit()
	}
}

func (c *ModelCache) miss() {
	if c.observer != nil {
		c.observer.CacheMiss()
	}
}
