package glyphrun

import "github.com/gogpu/glyphrun/internal/arena"

// ContainerOption configures MakeContainer.
type ContainerOption func(*containerOptions)

type containerOptions struct {
	tag              string
	strikeCachesOnly bool
	arena            *arena.Arena
}

// WithTag labels the container in debug logs.
func WithTag(tag string) ContainerOption {
	return func(o *containerOptions) { o.tag = tag }
}

// WithStrikeCachesOnly runs every stage so the strikes see every glyph,
// but adds no SubRuns. Use it to warm strike caches ahead of drawing.
func WithStrikeCachesOnly() ContainerOption {
	return func(o *containerOptions) { o.strikeCachesOnly = true }
}

// WithAllocator places the container's arrays in a. Containers sharing an
// arena share its lifetime.
func WithAllocator(a *Arena) ContainerOption {
	return func(o *containerOptions) { o.arena = a }
}

// Arena owns the plain-data arrays of one or more containers.
type Arena = arena.Arena

// NewArena returns an arena whose first chunks hold sizeHint bytes. See
// EstimateAllocSize.
func NewArena(sizeHint int) *Arena {
	return arena.New(sizeHint, 0)
}
