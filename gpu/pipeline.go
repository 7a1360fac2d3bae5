//go:build !nogpu

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/glyphrun"
)

// uniformSize is two vec4<f32>: viewport transform and atlas texel scale.
const uniformSize = 32

// Pipeline owns the text shader, its layouts and one render pipeline per
// shader stage and mask format. Render pipelines are created on first use.
type Pipeline struct {
	device hal.Device
	target gputypes.TextureFormat

	shader        hal.ShaderModule
	uniformLayout hal.BindGroupLayout
	pipeLayout    hal.PipelineLayout
	sampler       hal.Sampler

	pipelines map[pipelineKey]hal.RenderPipeline
}

type pipelineKey struct {
	format glyphrun.MaskFormat
	stage  shaderStage
}

// NewPipeline compiles the text shader and creates the shared layouts for
// rendering into target-format attachments.
func NewPipeline(device hal.Device, target gputypes.TextureFormat) (*Pipeline, error) {
	p := &Pipeline{
		device:    device,
		target:    target,
		pipelines: make(map[pipelineKey]hal.RenderPipeline),
	}
	if err := p.init(); err != nil {
		p.Destroy()
		return nil, err
	}
	return p, nil
}

func (p *Pipeline) init() error {
	shader, err := createTextShader(p.device)
	if err != nil {
		return err
	}
	p.shader = shader

	// Binding 0: uniforms, 1: atlas page, 2: sampler.
	p.uniformLayout, err = p.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "glyphrun_text_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    2,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create text bind group layout: %w", err)
	}

	p.pipeLayout, err = p.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "glyphrun_text_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.uniformLayout},
	})
	if err != nil {
		return fmt.Errorf("create text pipeline layout: %w", err)
	}

	// Atlas texels are addressed exactly; linear filtering only matters for
	// transformed and distance field glyphs, which carry a border.
	p.sampler, err = p.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "glyphrun_text_sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
		MipmapFilter: gputypes.FilterModeNearest,
	})
	if err != nil {
		return fmt.Errorf("create text sampler: %w", err)
	}
	return nil
}

// renderPipeline returns the pipeline drawing batches of one format and
// distance field mode.
func (p *Pipeline) renderPipeline(format glyphrun.MaskFormat, df glyphrun.DistanceFieldFlags) (hal.RenderPipeline, error) {
	key := pipelineKey{format: format, stage: stageFor(format, df)}
	if rp, ok := p.pipelines[key]; ok {
		return rp, nil
	}

	blend := gputypes.BlendStatePremultiplied()
	rp, err := p.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "glyphrun_text_" + key.stage.fragment + "_" + format.String(),
		Layout: p.pipeLayout,
		Vertex: hal.VertexState{
			Module:     p.shader,
			EntryPoint: key.stage.vertex,
			Buffers:    VertexLayout(format),
		},
		Fragment: &hal.FragmentState{
			Module:     p.shader,
			EntryPoint: key.stage.fragment,
			Targets: []gputypes.ColorTargetState{{
				Format:    p.target,
				Blend:     &blend,
				WriteMask: gputypes.ColorWriteMaskAll,
			}},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create text pipeline %s: %w", key.stage.fragment, err)
	}
	p.pipelines[key] = rp
	return rp, nil
}

// Record draws uploaded batches into rp. Batches with a scissor set it for
// their draw and restore the full target afterwards.
func (p *Pipeline) Record(rp hal.RenderPassEncoder, up *Uploader, draws []Draw) error {
	if len(draws) == 0 {
		return nil
	}
	if up.vertexBuf == nil || up.indexBuf == nil {
		return fmt.Errorf("gpu: record before upload")
	}
	w, h := up.viewport()
	scissored := false
	for _, d := range draws {
		pipeline, err := p.renderPipeline(d.Format, d.DistanceField)
		if err != nil {
			return err
		}
		group, err := up.bindGroup(p, d.Format)
		if err != nil {
			return err
		}
		rp.SetPipeline(pipeline)
		rp.SetBindGroup(0, group, nil)
		if s := d.Scissor; !s.IsEmpty() {
			rp.SetScissorRect(uint32(max(s.Left, 0)), uint32(max(s.Top, 0)), uint32(s.Width()), uint32(s.Height()))
			scissored = true
		} else if scissored {
			rp.SetScissorRect(0, 0, w, h)
			scissored = false
		}
		rp.SetVertexBuffer(0, up.vertexBuf, d.VertexOffset)
		rp.SetIndexBuffer(up.indexBuf, gputypes.IndexFormatUint32, 0)
		rp.DrawIndexed(uint32(d.GlyphCount*indicesPerGlyph), 1, 0, 0, 0)
	}
	if scissored {
		rp.SetScissorRect(0, 0, w, h)
	}
	return nil
}

// Destroy releases every GPU object. It is safe to call more than once.
func (p *Pipeline) Destroy() {
	if p.device == nil {
		return
	}
	for k, rp := range p.pipelines {
		p.device.DestroyRenderPipeline(rp)
		delete(p.pipelines, k)
	}
	if p.sampler != nil {
		p.device.DestroySampler(p.sampler)
		p.sampler = nil
	}
	if p.pipeLayout != nil {
		p.device.DestroyPipelineLayout(p.pipeLayout)
		p.pipeLayout = nil
	}
	if p.uniformLayout != nil {
		p.device.DestroyBindGroupLayout(p.uniformLayout)
		p.uniformLayout = nil
	}
	if p.shader != nil {
		p.device.DestroyShaderModule(p.shader)
		p.shader = nil
	}
}
