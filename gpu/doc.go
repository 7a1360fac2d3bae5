//go:build !nogpu

// Package gpu draws glyph SubRuns with wgpu/hal.
//
// A [Renderer] is the canvas and device a [glyphrun.Container] draws into.
// Prepare places the glyphs of every queued atlas draw in an
// [atlas.Manager] and fills their vertices, flushing when the atlas is
// full. An [Uploader] copies dirty atlas pages into textures and batch
// vertices into a vertex buffer, and a [Pipeline] records the draws:
//
//	r := gpu.NewRenderer(w, h)
//	container.Draw(r, origin, &paint, r)
//	err := r.Prepare(manager, func(batches []gpu.Batch) error {
//		if _, err := up.UploadAtlas(manager); err != nil {
//			return err
//		}
//		draws, err := up.UploadBatches(batches)
//		if err != nil {
//			return err
//		}
//		return pipeline.Record(pass, up, draws)
//	})
//
// Mask glyphs use a coverage shader, A565 glyphs an LCD shader, SDFT
// glyphs a distance field shader and ARGB glyphs sample color directly.
// The shader is WGSL compiled to SPIR-V with naga.
//
// Build with the nogpu tag to leave this package out.
package gpu
