package atlas

import "github.com/gogpu/glyphrun"

const (
	// minPageSize fits the largest atlas glyph plus its bilerp border.
	minPageSize = 512
	maxPageSize = 8192
)

// Config sizes the atlas pages.
type Config struct {
	// PageWidth and PageHeight are the texel dimensions of every page.
	// Default: 1024x1024.
	PageWidth  int
	PageHeight int

	// Padding is the gap left between neighbouring glyphs. Default: 1.
	Padding int

	// MaxTextStrikes bounds the GPU-side strike table; 0 means unbounded.
	MaxTextStrikes int
}

// DefaultConfig returns the default atlas configuration.
func DefaultConfig() Config {
	return Config{
		PageWidth:      1024,
		PageHeight:     1024,
		Padding:        1,
		MaxTextStrikes: 1024,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.PageWidth < minPageSize || c.PageWidth > maxPageSize {
		return &glyphrun.ConfigError{Type: "atlas", Field: "PageWidth", Reason: "must be between 512 and 8192"}
	}
	if c.PageHeight < minPageSize || c.PageHeight > maxPageSize {
		return &glyphrun.ConfigError{Type: "atlas", Field: "PageHeight", Reason: "must be between 512 and 8192"}
	}
	if c.Padding < 0 || c.Padding > 8 {
		return &glyphrun.ConfigError{Type: "atlas", Field: "Padding", Reason: "must be between 0 and 8"}
	}
	if c.MaxTextStrikes < 0 {
		return &glyphrun.ConfigError{Type: "atlas", Field: "MaxTextStrikes", Reason: "must be non-negative"}
	}
	return nil
}
