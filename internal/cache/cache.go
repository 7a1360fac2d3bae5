package cache

import "sync"

// Cache is a thread-safe LRU cache bounded by entry count and by the total
// weight of its values. Either limit may be zero to disable it.
//
// When an insertion pushes the cache over a limit, least recently used
// entries are evicted and passed to the eviction callback, which runs with
// the cache lock held and must not call back into the cache.
//
// Cache must not be copied after creation (has mutex).
type Cache[K comparable, V any] struct {
	mu        sync.Mutex
	entries   map[K]*cacheEntry[K, V]
	lru       *recency[K]
	maxLen    int
	maxWeight int64
	weight    int64
	weigh     func(V) int64
	onEvict   func(K, V)

	evictions uint64
}

// cacheEntry holds a cached value with its recency link and weight.
type cacheEntry[K comparable, V any] struct {
	value  V
	weight int64
	node   *link[K]
}

// Option configures a Cache.
type Option[K comparable, V any] func(*Cache[K, V])

// WithWeigher sets the function that reports the weight of a value and the
// total weight the cache may hold.
func WithWeigher[K comparable, V any](maxWeight int64, weigh func(V) int64) Option[K, V] {
	return func(c *Cache[K, V]) {
		c.maxWeight = maxWeight
		c.weigh = weigh
	}
}

// WithEvictCallback sets a function called for every evicted entry.
func WithEvictCallback[K comparable, V any](fn func(K, V)) Option[K, V] {
	return func(c *Cache[K, V]) {
		c.onEvict = fn
	}
}

// New creates a cache holding at most maxLen entries.
// A maxLen of 0 means unlimited.
func New[K comparable, V any](maxLen int, opts ...Option[K, V]) *Cache[K, V] {
	c := &Cache[K, V]{
		entries: make(map[K]*cacheEntry[K, V]),
		lru:     newRecency[K](),
		maxLen:  maxLen,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get retrieves a value and marks it most recently used.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.lru.touch(entry.node)
	return entry.value, true
}

// Peek retrieves a value without touching its recency.
func (c *Cache[K, V]) Peek(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	return entry.value, true
}

// Set stores a value, replacing any previous value for key.
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.setLocked(key, value)
}

// GetOrCreate returns the cached value or stores the result of create.
// create runs under the lock so concurrent callers never build duplicates.
func (c *Cache[K, V]) GetOrCreate(key K, create func() V) V {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[key]; ok {
		c.lru.touch(entry.node)
		return entry.value
	}
	value := create()
	c.setLocked(key, value)
	return value
}

func (c *Cache[K, V]) setLocked(key K, value V) {
	var w int64
	if c.weigh != nil {
		w = c.weigh(value)
	}
	if existing, ok := c.entries[key]; ok {
		c.weight += w - existing.weight
		existing.value = value
		existing.weight = w
		c.lru.touch(existing.node)
	} else {
		c.entries[key] = &cacheEntry[K, V]{
			value:  value,
			weight: w,
			node:   c.lru.insert(key),
		}
		c.weight += w
	}
	c.evictLocked(key)
}

// Reweigh recomputes the weight of key's value after it changed in place,
// evicting other entries if the cache is now over its weight limit.
func (c *Cache[K, V]) Reweigh(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok || c.weigh == nil {
		return
	}
	w := c.weigh(entry.value)
	c.weight += w - entry.weight
	entry.weight = w
	c.evictLocked(key)
}

// evictLocked removes least recently used entries, never keep, until the
// cache is within its limits. Caller must hold c.mu.
func (c *Cache[K, V]) evictLocked(keep K) {
	for c.overLimit() {
		node := c.lru.oldest()
		if node != nil && node.key == keep {
			node = c.lru.older(node)
		}
		if node == nil {
			return
		}
		c.removeLocked(node.key, true)
	}
}

func (c *Cache[K, V]) overLimit() bool {
	if c.maxLen > 0 && len(c.entries) > c.maxLen {
		return true
	}
	return c.maxWeight > 0 && c.weight > c.maxWeight
}

func (c *Cache[K, V]) removeLocked(key K, evicted bool) {
	entry := c.entries[key]
	c.lru.drop(entry.node)
	delete(c.entries, key)
	c.weight -= entry.weight
	if evicted {
		c.evictions++
		if c.onEvict != nil {
			c.onEvict(key, entry.value)
		}
	}
}

// Delete removes an entry without calling the eviction callback.
// Returns true if the entry was found and removed.
func (c *Cache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; !ok {
		return false
	}
	c.removeLocked(key, false)
	return true
}

// Purge evicts every entry, calling the eviction callback for each.
func (c *Cache[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for node := c.lru.oldest(); node != nil; node = c.lru.oldest() {
		c.removeLocked(node.key, true)
	}
}

// Len returns the number of entries in the cache.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// Weight returns the total weight of the cached values.
func (c *Cache[K, V]) Weight() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.weight
}

// Stats returns cache statistics.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Len:       len(c.entries),
		Capacity:  c.maxLen,
		Weight:    c.weight,
		Evictions: c.evictions,
	}
}

// Stats contains cache statistics.
type Stats struct {
	// Len is the current number of entries.
	Len int
	// Capacity is the entry limit (per shard for Sharded).
	Capacity int
	// TotalCapacity is the total entry limit across all shards (Sharded only).
	TotalCapacity int
	// Weight is the total weight of cached values (Cache only).
	Weight int64
	// Hits is the number of cache hits (Sharded only).
	Hits uint64
	// Misses is the number of cache misses (Sharded only).
	Misses uint64
	// HitRate is the cache hit rate 0.0 to 1.0 (Sharded only).
	HitRate float64
	// Evictions is the number of evicted entries.
	Evictions uint64
}
