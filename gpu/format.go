//go:build !nogpu

package gpu

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/glyphrun"
)

// TextureFormat returns the atlas texture format for a mask format. A565
// pages are uploaded as two raw bytes per texel and unpacked in the shader.
func TextureFormat(f glyphrun.MaskFormat) gputypes.TextureFormat {
	switch f {
	case glyphrun.MaskA565:
		return gputypes.TextureFormatRG8Unorm
	case glyphrun.MaskARGB:
		return gputypes.TextureFormatRGBA8Unorm
	default:
		return gputypes.TextureFormatR8Unorm
	}
}

// VertexLayout returns the vertex buffer layout FillVertexData produces for
// a mask format. Locations match text.wgsl.
func VertexLayout(f glyphrun.MaskFormat) []gputypes.VertexBufferLayout {
	if f == glyphrun.MaskARGB {
		return []gputypes.VertexBufferLayout{{
			ArrayStride: glyphrun.ARGB2DVertexStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0}, // position
				{Format: gputypes.VertexFormatUint16x2, Offset: 8, ShaderLocation: 2},  // atlas texel
			},
		}}
	}
	return []gputypes.VertexBufferLayout{{
		ArrayStride: glyphrun.Mask2DVertexStride,
		StepMode:    gputypes.VertexStepModeVertex,
		Attributes: []gputypes.VertexAttribute{
			{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0}, // position
			{Format: gputypes.VertexFormatUnorm8x4, Offset: 8, ShaderLocation: 1},  // premultiplied color
			{Format: gputypes.VertexFormatUint16x2, Offset: 12, ShaderLocation: 2}, // atlas texel
		},
	}}
}

// shaderStage names the entry points one draw uses.
type shaderStage struct {
	vertex, fragment string
}

func stageFor(f glyphrun.MaskFormat, df glyphrun.DistanceFieldFlags) shaderStage {
	switch {
	case f == glyphrun.MaskARGB:
		return shaderStage{"vs_color", "fs_color"}
	case f == glyphrun.MaskA565:
		return shaderStage{"vs_mask", "fs_lcd"}
	case df&glyphrun.DFEnabled != 0 && df&glyphrun.DFAliased != 0:
		return shaderStage{"vs_mask", "fs_sdf_aliased"}
	case df&glyphrun.DFEnabled != 0:
		return shaderStage{"vs_mask", "fs_sdf"}
	default:
		return shaderStage{"vs_mask", "fs_mask"}
	}
}
