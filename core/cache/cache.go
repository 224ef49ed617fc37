// Package cache provides an LRU cache for decompressed object content.
//
// Resolving a version touches every record's metadata but only the winning
// records' content, and the same blob is often the winner for many titles
// or versions within one run. ContentCache sits in front of the blob store so
// each blob is decompressed at most once while it stays resident.
package cache

import (
	"container/list"
	"sync"
)

// Cache is a generic LRU cache interface.
type Cache[K comparable, V any] interface {
	// Get retrieves a value and marks it most recently used.
	Get(key K) (V, bool)

	// Put stores a value, evicting least recently used entries as needed.
	Put(key K, value V)

	// Remove removes a value from the cache.
	Remove(key K)

	// Clear removes all entries from the cache.
	Clear()

	// Len returns the number of entries in the cache.
	Len() int

	// Stats returns cache statistics.
	Stats() Stats
}

// Stats contains cache statistics.
type Stats struct {
	Hits       int64
	Misses     int64
	Evictions  int64
	Size       int
	MaxSize    int
	TotalBytes int64
	MaxBytes   int64
}

// Config contains cache configuration options.
type Config[K comparable, V any] struct {
	// MaxSize is the maximum number of entries (0 = unlimited).
	MaxSize int

	// MaxBytes bounds the summed SizeOf of all entries (0 = unlimited).
	// A single value larger than MaxBytes is not cached.
	MaxBytes int64

	// SizeOf reports the byte cost of a value. Required when MaxBytes > 0.
	SizeOf func(V) int64

	// OnEvict is called when an entry is evicted to make room.
	OnEvict func(key K, value V)
}

// DefaultConfig returns a default cache configuration.
func DefaultConfig[K comparable, V any]() Config[K, V] {
	return Config[K, V]{MaxSize: 256}
}

type entry[K comparable, V any] struct {
	key   K
	value V
	size  int64
}

// lruCache is a thread-safe LRU cache implementation.
type lruCache[K comparable, V any] struct {
	mu        sync.Mutex
	config    Config[K, V]
	entries   map[K]*list.Element
	evictList *list.List
	bytes     int64
	stats     Stats
}

// NewLRUCache creates a new LRU cache with the given configuration.
func NewLRUCache[K comparable, V any](config Config[K, V]) Cache[K, V] {
	if config.MaxSize < 0 {
		config.MaxSize = 0
	}
	if config.MaxBytes < 0 || config.SizeOf == nil {
		config.MaxBytes = 0
	}
	return &lruCache[K, V]{
		config:    config,
		entries:   make(map[K]*list.Element),
		evictList: list.New(),
	}
}

func (c *lruCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ent, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		var zero V
		return zero, false
	}
	c.evictList.MoveToFront(ent)
	c.stats.Hits++
	return ent.Value.(*entry[K, V]).value, true
}

func (c *lruCache[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var size int64
	if c.config.SizeOf != nil {
		size = c.config.SizeOf(value)
	}
	if c.config.MaxBytes > 0 && size > c.config.MaxBytes {
		if ent, ok := c.entries[key]; ok {
			c.removeElement(ent)
		}
		return
	}

	if ent, ok := c.entries[key]; ok {
		e := ent.Value.(*entry[K, V])
		c.bytes += size - e.size
		e.value = value
		e.size = size
		c.evictList.MoveToFront(ent)
	} else {
		c.entries[key] = c.evictList.PushFront(&entry[K, V]{key: key, value: value, size: size})
		c.bytes += size
	}

	for c.overLimit() {
		c.removeOldest()
	}
}

func (c *lruCache[K, V]) overLimit() bool {
	if c.evictList.Len() <= 1 {
		return false
	}
	if c.config.MaxSize > 0 && c.evictList.Len() > c.config.MaxSize {
		return true
	}
	return c.config.MaxBytes > 0 && c.bytes > c.config.MaxBytes
}

func (c *lruCache[K, V]) Remove(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.entries[key]; ok {
		c.removeElement(ent)
	}
}

func (c *lruCache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[K]*list.Element)
	c.evictList.Init()
	c.bytes = 0
}

func (c *lruCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictList.Len()
}

func (c *lruCache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.stats
	s.Size = c.evictList.Len()
	s.MaxSize = c.config.MaxSize
	s.TotalBytes = c.bytes
	s.MaxBytes = c.config.MaxBytes
	return s
}

func (c *lruCache[K, V]) removeOldest() {
	ent := c.evictList.Back()
	if ent == nil {
		return
	}
	e := c.removeElement(ent)
	c.stats.Evictions++
	if c.config.OnEvict != nil {
		c.config.OnEvict(e.key, e.value)
	}
}

func (c *lruCache[K, V]) removeElement(ent *list.Element) *entry[K, V] {
	c.evictList.Remove(ent)
	e := ent.Value.(*entry[K, V])
	delete(c.entries, e.key)
	c.bytes -= e.size
	return e
}
