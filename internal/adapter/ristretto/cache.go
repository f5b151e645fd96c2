// Package ristretto implements the analytics response cache using
// dgraph-io/ristretto as an in-process cache.
package ristretto

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/google/uuid"
)

// Cache memoizes rendered analytics responses keyed per dataset.
// Invalidation bumps a per-dataset generation; stale entries age out
// via TTL.
type Cache struct {
	c   *ristretto.Cache[string, []byte]
	ttl time.Duration

	mu   sync.RWMutex
	gens map[uuid.UUID]uint64
}

// New creates a ristretto-backed cache. maxCostBytes is the maximum total
// size of cached values in bytes.
func New(maxCostBytes int64, ttl time.Duration) (*Cache, error) {
	c, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: maxCostBytes / 100 * 10, // ~10x expected items
		MaxCost:     maxCostBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Cache{c: c, ttl: ttl, gens: map[uuid.UUID]uint64{}}, nil
}

// Get retrieves a cached response for the dataset-scoped key.
func (c *Cache) Get(_ context.Context, datasetID uuid.UUID, key string) ([]byte, bool) {
	return c.c.Get(c.fullKey(datasetID, key))
}

// Set stores a rendered response under the dataset-scoped key.
func (c *Cache) Set(_ context.Context, datasetID uuid.UUID, key string, value []byte) {
	c.c.SetWithTTL(c.fullKey(datasetID, key), value, int64(len(value)), c.ttl)
}

// Invalidate drops every entry for the dataset by advancing its
// generation.
func (c *Cache) Invalidate(_ context.Context, datasetID uuid.UUID) {
	c.mu.Lock()
	c.gens[datasetID]++
	c.mu.Unlock()
}

func (c *Cache) fullKey(datasetID uuid.UUID, key string) string {
	c.mu.RLock()
	gen := c.gens[datasetID]
	c.mu.RUnlock()
	return fmt.Sprintf("%s:%d:%s", datasetID, gen, key)
}

// Close shuts down the cache and releases resources.
func (c *Cache) Close() {
	c.c.Close()
}
