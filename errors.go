package glyphrun

import "errors"

// Sentinel errors.
var (
	// ErrInvalidBuffer is returned when a flattened container fails
	// validation. Decoding never yields a partial container.
	ErrInvalidBuffer = errors.New("glyphrun: invalid buffer")

	// ErrStrikeNotFound is returned when a decoded descriptor names a strike
	// the local cache does not hold.
	ErrStrikeNotFound = errors.New("glyphrun: strike not found")

	// ErrTypefaceTranslation is returned when a decoded typeface ID has no
	// local mapping.
	ErrTypefaceTranslation = errors.New("glyphrun: typeface ID translation failed")

	// ErrUnknownTypeface is returned when a typeface ID is not registered.
	ErrUnknownTypeface = errors.New("glyphrun: unknown typeface")

	// ErrMismatchedRun is returned when a run's glyph and position counts differ.
	ErrMismatchedRun = errors.New("glyphrun: glyph and position counts differ")

	// ErrEmptyContainer is returned when flattening a container with no SubRuns.
	ErrEmptyContainer = errors.New("glyphrun: container has no sub runs")
)

// ConfigError reports an invalid configuration field.
type ConfigError struct {
	Type   string
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return "glyphrun: invalid " + e.Type + " config." + e.Field + ": " + e.Reason
}
