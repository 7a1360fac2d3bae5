package cache

import (
	"encoding/binary"
	"hash/fnv"
	"sync"
	"sync/atomic"
)

const (
	// ShardCount is the number of shards in a Sharded cache.
	// Must be a power of 2 for fast modulo via bitwise AND.
	ShardCount = 16

	// DefaultShardCapacity is the default maximum entries per shard.
	DefaultShardCapacity = 256

	shardMask = ShardCount - 1
)

// Hasher computes a hash for a key, used for shard selection.
type Hasher[K any] func(K) uint64

// Uint64PairHasher hashes two 64-bit words with FNV-1a.
func Uint64PairHasher(a, b uint64) uint64 {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], a)
	binary.LittleEndian.PutUint64(buf[8:], b)
	h := fnv.New64a()
	_, _ = h.Write(buf[:]) // fnv.Write never returns an error
	return h.Sum64()
}

// Sharded is a thread-safe LRU cache split into ShardCount independently
// locked shards, for lookups from many goroutines at once.
type Sharded[K comparable, V any] struct {
	shards   [ShardCount]*shard[K, V]
	hasher   Hasher[K]
	capacity int
	onEvict  func(K, V)

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

type shard[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*shardEntry[K, V]
	lru     *recency[K]
}

type shardEntry[K comparable, V any] struct {
	value V
	node  *link[K]
}

// NewSharded creates a sharded cache with capacity entries per shard.
// If capacity <= 0, DefaultShardCapacity is used. onEvict may be nil; it
// runs with the shard lock held.
func NewSharded[K comparable, V any](capacity int, hasher Hasher[K], onEvict func(K, V)) *Sharded[K, V] {
	if capacity <= 0 {
		capacity = DefaultShardCapacity
	}
	c := &Sharded[K, V]{
		hasher:   hasher,
		capacity: capacity,
		onEvict:  onEvict,
	}
	for i := range c.shards {
		c.shards[i] = &shard[K, V]{
			entries: make(map[K]*shardEntry[K, V]),
			lru:     newRecency[K](),
		}
	}
	return c
}

func (c *Sharded[K, V]) shardFor(key K) *shard[K, V] {
	return c.shards[c.hasher(key)&shardMask]
}

// Get retrieves a value and marks it most recently used.
func (c *Sharded[K, V]) Get(key K) (V, bool) {
	s := c.shardFor(key)
	s.mu.Lock()
	entry, ok := s.entries[key]
	if !ok {
		s.mu.Unlock()
		c.misses.Add(1)
		var zero V
		return zero, false
	}
	s.lru.touch(entry.node)
	value := entry.value
	s.mu.Unlock()

	c.hits.Add(1)
	return value, true
}

// Set stores a value. A replaced value is passed to the eviction callback.
func (c *Sharded[K, V]) Set(key K, value V) {
	s := c.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.entries[key]; ok {
		old := existing.value
		existing.value = value
		s.lru.touch(existing.node)
		if c.onEvict != nil {
			c.onEvict(key, old)
		}
		return
	}

	for s.lru.len() >= c.capacity {
		oldest := s.lru.oldest()
		if oldest == nil {
			break
		}
		s.lru.drop(oldest)
		evicted := s.entries[oldest.key]
		delete(s.entries, oldest.key)
		c.evictions.Add(1)
		if c.onEvict != nil {
			c.onEvict(oldest.key, evicted.value)
		}
	}

	s.entries[key] = &shardEntry[K, V]{
		value: value,
		node:  s.lru.insert(key),
	}
}

// Delete removes an entry, passing it to the eviction callback.
// Returns true if the entry was found and removed.
func (c *Sharded[K, V]) Delete(key K) bool {
	s := c.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return false
	}
	s.lru.drop(entry.node)
	delete(s.entries, key)
	if c.onEvict != nil {
		c.onEvict(key, entry.value)
	}
	return true
}

// Clear removes all entries, passing each to the eviction callback.
func (c *Sharded[K, V]) Clear() {
	for _, s := range c.shards {
		s.mu.Lock()
		if c.onEvict != nil {
			for k, e := range s.entries {
				c.onEvict(k, e.value)
			}
		}
		s.entries = make(map[K]*shardEntry[K, V])
		s.lru.reset()
		s.mu.Unlock()
	}
}

// Len returns the total number of entries across all shards.
func (c *Sharded[K, V]) Len() int {
	total := 0
	for _, s := range c.shards {
		s.mu.Lock()
		total += len(s.entries)
		s.mu.Unlock()
	}
	return total
}

// Stats returns current cache statistics.
func (c *Sharded[K, V]) Stats() Stats {
	hits := c.hits.Load()
	misses := c.misses.Load()

	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	return Stats{
		Len:           c.Len(),
		Capacity:      c.capacity,
		TotalCapacity: c.capacity * ShardCount,
		Hits:          hits,
		Misses:        misses,
		HitRate:       hitRate,
		Evictions:     c.evictions.Load(),
	}
}
