package caching

import (
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/AntonStoeckl/attribute-query-go/attribute"
)

var (
	// ErrInvalidCacheSize is returned by NewCache for sizes below 1.
	ErrInvalidCacheSize = errors.New("cache size must be positive")

	// ErrNilCache is returned by NewWrapper without a Cache.
	ErrNilCache = errors.New("cache must not be nil")
)

// Cache holds copies of results; it is safe for concurrent use and shared by all clones of a Wrapper.
type Cache struct {
	entries *lru.Cache[string, entry]
}

// entry is a cached result; Get and Find results are entries with one item.
type entry struct {
	items attribute.Items
	total attribute.TotalCountUint
}

// NewCache creates a Cache keeping at most size results.
func NewCache(size int) (*Cache, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCacheSize, size)
	}

	entries, err := lru.New[string, entry](size)
	if err != nil {
		return nil, err
	}

	return &Cache{entries: entries}, nil
}

// Len returns the number of cached results.
func (c *Cache) Len() int {
	return c.entries.Len()
}

// Purge removes all cached results.
func (c *Cache) Purge() {
	c.entries.Purge()
}

// load returns a copy of the cached result for key.
func (c *Cache) load(key string) (entry, bool) {
	cached, ok := c.entries.Get(key)
	if !ok {
		return entry{}, false
	}

	return entry{items: copyItems(cached.items), total: cached.total}, true
}

// store caches a copy of the result under key.
func (c *Cache) store(key string, result entry) {
	c.entries.Add(key, entry{items: copyItems(result.items), total: result.total})
}

func copyItems(items attribute.Items) attribute.Items {
	if items == nil {
		return nil
	}

	copied := make(attribute.Items, 0, len(items))
	for _, item := range items {
		copied = append(copied, item.Copy())
	}

	return copied
}
