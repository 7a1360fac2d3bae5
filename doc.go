// Package glyphrun turns positioned glyph runs into GPU-ready SubRuns.
//
// # Overview
//
// A text draw arrives as a [GlyphRunList]: glyph IDs with positions,
// grouped into runs that share a [Font]. [MakeContainer] classifies every
// glyph into one of five SubRun kinds and returns a [Container] that can be
// drawn many times and reused while the draw matrix stays compatible:
//
//   - DirectMask: device-space masks at integer or subpixel positions.
//   - SDFT: signed distance field masks scaled over a band of sizes.
//   - TransformedMask: masks drawn through an arbitrary matrix.
//   - Path: outlines drawn as paths, for huge or effect-laden text.
//   - Drawable: glyphs that paint themselves, such as color glyphs.
//
// Glyphs too large for the atlas that cannot be drawn as paths are shrunk
// until they fit and drawn as transformed masks.
//
// # Quick Start
//
//	paint := glyphrun.DefaultPaint()
//	info := glyphrun.StrikeDeviceInfo{SDFTControl: glyphrun.DefaultSDFTControl()}
//	pm := glyphrun.PositionMatrix(drawMatrix, list.Origin)
//	c, _ := glyphrun.MakeContainer(list, pm, &paint, info, strikes)
//	defer c.Release()
//
//	if c.CanReuse(&paint, pm) {
//		c.Draw(canvas, list.Origin, &paint, device)
//	}
//
// Strikes come from a [StrikeCache]; package strike implements one over
// real font files. Atlas SubRuns queue an [AtlasTextOp] on the [Device];
// package atlas places their glyphs and package gpu turns the ops into
// vertex buffers and draws.
//
// # Serialization
//
// [Container.MarshalBinary] writes a container in a little-endian wire
// format and [Unflatten] reads it back against a [StrikeFinder]. Every
// field is validated; malformed input returns [ErrInvalidBuffer] rather
// than a partial container. A [TypefaceTranslator] maps typeface IDs when
// the reader uses a different font registry.
//
// # Coordinate System
//
// Device space has its origin at the top-left, X increasing right and Y
// increasing down. [Matrix] maps source to device coordinates.
//
// # Logging
//
// The package logs through [log/slog]. Nothing is logged until
// [SetLogger] installs a logger.
package glyphrun
