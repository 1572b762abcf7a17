package resolve

import (
	"sync"

	"github.com/syssam/forge/typegraph"
)

// Cache holds resolution results for the duration of a batch run, keyed by
// (file, type name, rendered type arguments). It is append-only: entries are
// never invalidated, and racing writers for the same key simply overwrite
// each other with equivalent immutable graphs (last write wins).
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*typegraph.ResolvedType
}

// NewCache returns an empty per-batch cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]*typegraph.ResolvedType)}
}

// Key renders the cache key of one resolution request.
func Key(file, name string, args []*typegraph.TypeInfo) string {
	return file + "::" + typegraph.InstanceName(name, args)
}

// Get returns the cached result for the key, if present.
func (c *Cache) Get(key string) (*typegraph.ResolvedType, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rt, ok := c.entries[key]
	return rt, ok
}

// Put stores a result under the key.
func (c *Cache) Put(key string, rt *typegraph.ResolvedType) {
	c.mu.Lock()
	c.entries[key] = rt
	c.mu.Unlock()
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Export serializes one entry for persistence across batch runs.
func (c *Cache) Export(key string) ([]byte, bool, error) {
	rt, ok := c.Get(key)
	if !ok {
		return nil, false, nil
	}
	data, err := typegraph.EncodeSnapshot(rt)
	return data, true, err
}

// Restore decodes a persisted entry and stores it under the key.
func (c *Cache) Restore(key string, data []byte) error {
	rt, err := typegraph.DecodeSnapshot(data)
	if err != nil {
		return err
	}
	c.Put(key, rt)
	return nil
}
