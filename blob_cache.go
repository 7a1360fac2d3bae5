package glyphrun

import (
	"github.com/gogpu/glyphrun/internal/cache"
)

// BlobKey identifies a cached container: the run list it was made from and
// the paint and device state that shaped its SubRuns.
type BlobKey struct {
	ListID   uint64
	PaintKey uint64
}

// MakeBlobKey returns the cache key for drawing list with paint on a
// device described by info.
func MakeBlobKey(list *GlyphRunList, paint *Paint, info StrikeDeviceInfo) BlobKey {
	k := paint.Key()
	k ^= uint64(info.SurfaceProps.PixelGeometry) << 56
	k ^= uint64(info.ScalerContextFlags) << 48
	return BlobKey{ListID: list.UniqueID(), PaintKey: k}
}

// BlobCache keeps containers across frames so unchanged text is not
// classified again. A cached container is returned only if it can be
// reused at the requested matrix. Evicted containers are released once
// every caller holding them has called Unref.
//
// BlobCache is safe for concurrent use.
type BlobCache struct {
	entries *cache.Sharded[BlobKey, *Container]
}

// NewBlobCache returns a cache holding up to capacityPerShard containers in
// each of its shards. A non-positive capacity selects the default.
func NewBlobCache(capacityPerShard int) *BlobCache {
	hasher := func(k BlobKey) uint64 { return cache.Uint64PairHasher(k.ListID, k.PaintKey) }
	onEvict := func(k BlobKey, c *Container) {
		Logger().Debug("glyphrun: blob evicted", "list", k.ListID, "subRuns", len(c.subRuns))
		c.Release()
	}
	return &BlobCache{entries: cache.NewSharded(capacityPerShard, hasher, onEvict)}
}

// Find returns the container for key if it can be drawn at positionMatrix.
// The container is returned with a hold; the caller must Unref it after
// drawing.
func (b *BlobCache) Find(key BlobKey, paint *Paint, positionMatrix Matrix) (*Container, bool) {
	c, ok := b.entries.Get(key)
	if !ok || !c.CanReuse(paint, positionMatrix) || !c.Ref() {
		return nil, false
	}
	return c, true
}

// Add stores c under key, releasing any container it replaces. The cache
// takes over the creator's hold on c.
func (b *BlobCache) Add(key BlobKey, c *Container) {
	b.entries.Set(key, c)
}

// Remove drops and releases the container for key.
func (b *BlobCache) Remove(key BlobKey) bool {
	return b.entries.Delete(key)
}

// Purge releases every cached container.
func (b *BlobCache) Purge() { b.entries.Clear() }

// Len returns the number of cached containers.
func (b *BlobCache) Len() int { return b.entries.Len() }

// CacheStats reports cache occupancy and hit rates.
type CacheStats = cache.Stats

// Stats returns hit, miss and eviction counts.
func (b *BlobCache) Stats() CacheStats { return b.entries.Stats() }

// FindOrCreate returns a reusable cached container for drawing list at
// positionMatrix, making and caching a new one on a miss. As with Find, the
// caller must Unref the container after drawing. The boolean is
// MakeContainer's excluded-glyph result for new containers and false for
// cache hits.
func (b *BlobCache) FindOrCreate(list *GlyphRunList, positionMatrix Matrix, paint *Paint,
	info StrikeDeviceInfo, strikes StrikeCache, opts ...ContainerOption) (*Container, bool) {
	key := MakeBlobKey(list, paint, info)
	if c, ok := b.Find(key, paint, positionMatrix); ok {
		return c, false
	}
	c, excluded := MakeContainer(list, positionMatrix, paint, info, strikes, opts...)
	c.Ref()
	b.Add(key, c)
	return c, excluded
}
