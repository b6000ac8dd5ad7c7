package assets

import (
	"sync"
	"sync/atomic"

	"github.com/Faultbox/js5view/pkg/formats"
)

// ModelCache holds decoded meshes keyed by group id.
type ModelCache struct {
	mu     sync.RWMutex
	models map[int]*formats.ModelUnlit

	hits   atomic.Int64
	misses atomic.Int64
}

// NewModelCache creates an empty cache.
func NewModelCache() *ModelCache {
	return &ModelCache{
		models: make(map[int]*formats.ModelUnlit),
	}
}

// Get retrieves a cached mesh. The result must be treated as immutable.
func (c *ModelCache) Get(groupID int) (*formats.ModelUnlit, bool) {
	c.mu.RLock()
	model, ok := c.models[groupID]
	c.mu.RUnlock()

	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return model, ok
}

// Set stores a decoded mesh.
func (c *ModelCache) Set(groupID int, model *formats.ModelUnlit) {
	c.mu.Lock()
	c.models[groupID] = model
	c.mu.Unlock()
}

// Len returns the number of cached meshes.
func (c *ModelCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.models)
}

// Clear drops all cached meshes and resets the counters.
func (c *ModelCache) Clear() {
	c.mu.Lock()
	c.models = make(map[int]*formats.ModelUnlit)
	c.mu.Unlock()
	c.hits.Store(0)
	c.misses.Store(0)
}

// Stats returns the hit and miss counts.
func (c *ModelCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
