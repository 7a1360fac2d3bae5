package strike

import (
	"sync/atomic"

	"github.com/gogpu/glyphrun"
	"github.com/gogpu/glyphrun/internal/cache"
)

// Cache owns strikes keyed by descriptor. It implements
// glyphrun.StrikeCache and glyphrun.StrikeFinder.
//
// The cache holds one reference on every strike it stores and drops it on
// eviction; SubRuns keep evicted strikes alive through their own
// references.
//
// Cache is safe for concurrent use.
type Cache struct {
	registry *Registry
	strikes  *cache.Cache[glyphrun.Descriptor, *Strike]

	created atomic.Uint64
	hits    atomic.Uint64
}

var _ glyphrun.StrikeCache = (*Cache)(nil)

// NewCache creates a strike cache over the typefaces in registry.
func NewCache(registry *Registry, cfg CacheConfig) (*Cache, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Cache{registry: registry}
	c.strikes = cache.New(cfg.MaxStrikes,
		cache.WithWeigher[glyphrun.Descriptor, *Strike](cfg.MaxBytes, (*Strike).memoryUsed),
		cache.WithEvictCallback(func(desc glyphrun.Descriptor, s *Strike) {
			glyphrun.Logger().Debug("strike: evicted",
				"typeface", desc.TypefaceID, "size", desc.TextSize, "kind", desc.Kind, "bytes", s.memoryUsed())
			s.Unref()
		}),
	)
	return c, nil
}

// FindStrike returns the cached strike for desc without taking a
// reference, or nil.
func (c *Cache) FindStrike(desc glyphrun.Descriptor) glyphrun.Strike {
	s, ok := c.strikes.Get(desc)
	if !ok {
		return nil
	}
	c.hits.Add(1)
	return s
}

// FindOrCreateStrike returns the strike for desc with one reference held
// for the caller. A descriptor naming an unregistered typeface yields a
// strike whose glyphs are all empty.
func (c *Cache) FindOrCreateStrike(desc glyphrun.Descriptor) glyphrun.Strike {
	return c.findOrCreate(desc)
}

func (c *Cache) findOrCreate(desc glyphrun.Descriptor) *Strike {
	made := false
	s := c.strikes.GetOrCreate(desc, func() *Strike {
		made = true
		return c.newStrike(desc)
	})
	if made {
		c.created.Add(1)
	} else {
		c.hits.Add(1)
	}
	s.Ref()
	return s
}

func (c *Cache) newStrike(desc glyphrun.Descriptor) *Strike {
	face, err := c.registry.Typeface(desc.TypefaceID)
	if err != nil {
		glyphrun.Logger().Warn("strike: creating empty strike", "err", err)
	}
	s := newStrike(desc, face, c.reweigh)
	glyphrun.Logger().Debug("strike: created",
		"typeface", desc.TypefaceID, "size", desc.TextSize, "kind", desc.Kind)
	return s
}

// reweigh is called by a strike after its memory use grew.
func (c *Cache) reweigh(desc glyphrun.Descriptor) {
	c.strikes.Reweigh(desc)
}

// Purge drops every strike the cache holds.
func (c *Cache) Purge() {
	c.strikes.Purge()
}

// Len returns the number of cached strikes.
func (c *Cache) Len() int { return c.strikes.Len() }

// CacheStats describes a strike cache.
type CacheStats struct {
	Strikes   int
	Bytes     int64
	Created   uint64
	Hits      uint64
	Evictions uint64
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() CacheStats {
	st := c.strikes.Stats()
	return CacheStats{
		Strikes:   st.Len,
		Bytes:     st.Weight,
		Created:   c.created.Load(),
		Hits:      c.hits.Load(),
		Evictions: st.Evictions,
	}
}
