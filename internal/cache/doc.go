// Package cache provides the generic LRU caches behind the strike cache and
// the text blob cache.
//
// # Cache[K, V]
//
// A mutex-guarded LRU bounded by entry count and, optionally, by the summed
// weight of its values. Evicted entries are reported through a callback so
// owners can release what the value holds.
//
//	c := cache.New[string, []byte](0,
//		cache.WithWeigher[string, []byte](1<<20, func(b []byte) int64 { return int64(len(b)) }))
//	c.Set("key", data)
//
// # Sharded[K, V]
//
// Sixteen independently locked LRU shards for lookups from many goroutines.
//
//	c := cache.NewSharded[uint64, int](256, func(k uint64) uint64 { return k }, nil)
//
// Neither type may be copied after creation (they contain mutexes).
package cache
