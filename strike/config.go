package strike

import "github.com/gogpu/glyphrun"

// CacheConfig bounds a strike cache.
type CacheConfig struct {
	// MaxStrikes is the number of strikes kept. 0 means unlimited.
	MaxStrikes int
	// MaxBytes is the approximate memory the strikes may use, counting
	// glyph entries, outlines and mask images. 0 means unlimited.
	MaxBytes int64
}

// DefaultCacheConfig returns 2 MiB of strikes, at most 2048 of them.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		MaxStrikes: 2048,
		MaxBytes:   2 << 20,
	}
}

// Validate checks the limits.
func (c *CacheConfig) Validate() error {
	if c.MaxStrikes < 0 {
		return &glyphrun.ConfigError{Type: "strike cache", Field: "MaxStrikes", Reason: "must be non-negative"}
	}
	if c.MaxBytes < 0 {
		return &glyphrun.ConfigError{Type: "strike cache", Field: "MaxBytes", Reason: "must be non-negative"}
	}
	if c.MaxBytes > 0 && c.MaxBytes < minCacheBytes {
		return &glyphrun.ConfigError{Type: "strike cache", Field: "MaxBytes", Reason: "must be at least 64 KiB"}
	}
	return nil
}

const minCacheBytes = 64 << 10
