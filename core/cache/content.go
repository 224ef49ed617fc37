package cache

// DefaultContentBytes bounds the memory held by a default ContentCache.
const DefaultContentBytes = 32 << 20

// Loader fetches the content stored under a hash.
type Loader func(hash string) ([]byte, error)

// ContentCache memoizes a Loader, keeping recently used blobs in memory.
type ContentCache struct {
	cache Cache[string, string]
	load  Loader
}

// NewContentCache wraps load with a byte-bounded LRU.
func NewContentCache(load Loader, maxBytes int64) *ContentCache {
	return &ContentCache{
		cache: NewLRUCache(Config[string, string]{
			MaxBytes: maxBytes,
			SizeOf:   func(s string) int64 { return int64(len(s)) },
		}),
		load: load,
	}
}

// Content returns the content for hash, loading it on a miss.
// Load errors are returned unchanged and nothing is cached.
func (c *ContentCache) Content(hash string) (string, error) {
	if s, ok := c.cache.Get(hash); ok {
		return s, nil
	}
	data, err := c.load(hash)
	if err != nil {
		return "", err
	}
	s := string(data)
	c.cache.Put(hash, s)
	return s, nil
}

// Forget drops hash from the cache.
func (c *ContentCache) Forget(hash string) {
	c.cache.Remove(hash)
}

// Stats returns cache statistics.
func (c *ContentCache) Stats() Stats {
	return c.cache.Stats()
}
