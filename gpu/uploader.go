//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/glyphrun"
	"github.com/gogpu/glyphrun/atlas"
)

const (
	indicesPerGlyph   = 6
	minVertexCapacity = 64 << 10
)

// Draw is an uploaded batch: where its vertices start in the vertex buffer.
type Draw struct {
	Batch
	VertexOffset uint64
}

// atlasTexture is the GPU copy of one atlas page.
type atlasTexture struct {
	texture       hal.Texture
	view          hal.TextureView
	group         hal.BindGroup
	width, height int
	generation    uint64
}

// Uploader mirrors atlas pages into textures and writes batch vertices
// into a shared vertex buffer.
type Uploader struct {
	device hal.Device
	queue  hal.Queue

	textures [glyphrun.MaskFormatCount]atlasTexture

	vertexBuf  hal.Buffer
	vertexCap  uint64
	indexBuf   hal.Buffer
	indexQuads int
	uniformBuf hal.Buffer

	targetW, targetH int
}

// NewUploader creates an uploader for a width×height render target.
func NewUploader(device hal.Device, queue hal.Queue, width, height int) *Uploader {
	return &Uploader{device: device, queue: queue, targetW: width, targetH: height}
}

func (u *Uploader) viewport() (w, h uint32) { return uint32(u.targetW), uint32(u.targetH) }

// Texture returns the atlas texture for a format, nil before its first
// upload.
func (u *Uploader) Texture(f glyphrun.MaskFormat) hal.Texture { return u.textures[f].texture }

// UploadAtlas copies the dirty region of every atlas page to its texture
// and returns the number of pages written.
func (u *Uploader) UploadAtlas(m *atlas.Manager) (int, error) {
	written := 0
	for f := range glyphrun.MaskFormatCount {
		page, dirty := m.TakeDirty(f)
		if !dirty {
			continue
		}
		if err := u.ensureTexture(f, page.Width, page.Height); err != nil {
			return written, err
		}
		d := page.Dirty
		bpp := f.BytesPerPixel()
		start := d.Min.Y*page.Stride + d.Min.X*bpp
		err := u.queue.WriteTexture(
			&hal.ImageCopyTexture{
				Texture: u.textures[f].texture,
				Origin:  hal.Origin3D{X: uint32(d.Min.X), Y: uint32(d.Min.Y)},
				Aspect:  gputypes.TextureAspectAll,
			},
			page.Pix[start:],
			&hal.ImageDataLayout{BytesPerRow: uint32(page.Stride), RowsPerImage: uint32(d.Dy())},
			&hal.Extent3D{Width: uint32(d.Dx()), Height: uint32(d.Dy()), DepthOrArrayLayers: 1},
		)
		if err != nil {
			return written, fmt.Errorf("upload %v atlas page: %w", f, err)
		}
		u.textures[f].generation = page.Generation
		written++
	}
	return written, nil
}

func (u *Uploader) ensureTexture(f glyphrun.MaskFormat, w, h int) error {
	t := &u.textures[f]
	if t.texture != nil && t.width == w && t.height == h {
		return nil
	}
	u.destroyTexture(t)
	tex, err := u.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "glyphrun_atlas_" + f.String(),
		Size:          hal.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        TextureFormat(f),
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create %v atlas texture: %w", f, err)
	}
	view, err := u.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label: "glyphrun_atlas_" + f.String() + "_view",
	})
	if err != nil {
		u.device.DestroyTexture(tex)
		return fmt.Errorf("create %v atlas view: %w", f, err)
	}
	*t = atlasTexture{texture: tex, view: view, width: w, height: h}
	glyphrun.Logger().Debug("gpu: atlas texture created", "format", f, "width", w, "height", h)
	return nil
}

// UploadBatches writes the vertices of every batch into the vertex buffer
// and makes sure the quad index buffer covers the largest batch. Draws
// returned by an earlier call must be submitted before calling it again.
func (u *Uploader) UploadBatches(batches []Batch) ([]Draw, error) {
	var total uint64
	largest := 0
	for _, b := range batches {
		total += uint64(len(b.Vertices))
		largest = max(largest, b.GlyphCount)
	}
	if total == 0 {
		return nil, nil
	}
	if err := u.ensureVertexBuffer(total); err != nil {
		return nil, err
	}
	if err := u.ensureIndexBuffer(largest); err != nil {
		return nil, err
	}

	draws := make([]Draw, 0, len(batches))
	data := make([]byte, 0, total)
	for _, b := range batches {
		draws = append(draws, Draw{Batch: b, VertexOffset: uint64(len(data))})
		data = append(data, b.Vertices...)
	}
	if err := u.queue.WriteBuffer(u.vertexBuf, 0, data); err != nil {
		return nil, fmt.Errorf("write text vertices: %w", err)
	}
	return draws, nil
}

func (u *Uploader) ensureVertexBuffer(size uint64) error {
	if u.vertexBuf != nil && u.vertexCap >= size {
		return nil
	}
	capacity := max(u.vertexCap, minVertexCapacity)
	for capacity < size {
		capacity *= 2
	}
	if u.vertexBuf != nil {
		u.device.DestroyBuffer(u.vertexBuf)
		u.vertexBuf = nil
	}
	buf, err := u.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "glyphrun_text_vertices",
		Size:  capacity,
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create text vertex buffer: %w", err)
	}
	u.vertexBuf, u.vertexCap = buf, capacity
	return nil
}

// ensureIndexBuffer writes two triangles per quad for the vertex order
// left-top, left-bottom, right-top, right-bottom.
func (u *Uploader) ensureIndexBuffer(quads int) error {
	if u.indexBuf != nil && u.indexQuads >= quads {
		return nil
	}
	n := max(quads, 1024)
	if u.indexBuf != nil {
		u.device.DestroyBuffer(u.indexBuf)
		u.indexBuf = nil
	}
	buf, err := u.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "glyphrun_text_indices",
		Size:  uint64(n * indicesPerGlyph * 4),
		Usage: gputypes.BufferUsageIndex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create text index buffer: %w", err)
	}
	if err := u.queue.WriteBuffer(buf, 0, quadIndices(n)); err != nil {
		u.device.DestroyBuffer(buf)
		return fmt.Errorf("write text indices: %w", err)
	}
	u.indexBuf, u.indexQuads = buf, n
	return nil
}

func quadIndices(quads int) []byte {
	out := make([]byte, 0, quads*indicesPerGlyph*4)
	for q := range quads {
		base := uint32(q * glyphrun.VerticesPerGlyph)
		for _, i := range [indicesPerGlyph]uint32{0, 1, 2, 2, 1, 3} {
			out = binary.LittleEndian.AppendUint32(out, base+i)
		}
	}
	return out
}

// bindGroup returns the bind group sampling the format's atlas texture,
// creating the shared uniform buffer on first use.
func (u *Uploader) bindGroup(p *Pipeline, f glyphrun.MaskFormat) (hal.BindGroup, error) {
	t := &u.textures[f]
	if t.view == nil {
		return nil, fmt.Errorf("gpu: %v atlas texture not uploaded", f)
	}
	if t.group != nil {
		return t.group, nil
	}
	if err := u.ensureUniforms(t.width, t.height); err != nil {
		return nil, err
	}
	group, err := u.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "glyphrun_text_bind_" + f.String(),
		Layout: p.uniformLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: u.uniformBuf.NativeHandle(), Size: uniformSize}},
			{Binding: 1, Resource: gputypes.TextureViewBinding{TextureView: t.view.NativeHandle()}},
			{Binding: 2, Resource: gputypes.SamplerBinding{Sampler: p.sampler.NativeHandle()}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create %v text bind group: %w", f, err)
	}
	t.group = group
	return group, nil
}

func (u *Uploader) ensureUniforms(atlasW, atlasH int) error {
	if u.uniformBuf != nil {
		return nil
	}
	buf, err := u.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "glyphrun_text_uniforms",
		Size:  uniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create text uniform buffer: %w", err)
	}
	u.uniformBuf = buf
	return u.queue.WriteBuffer(buf, 0, textUniforms(u.targetW, u.targetH, atlasW, atlasH))
}

// textUniforms maps device pixels to clip space with y pointing down.
func textUniforms(targetW, targetH, atlasW, atlasH int) []byte {
	vals := [8]float32{
		2 / float32(targetW), -2 / float32(targetH), -1, 1,
		1 / float32(atlasW), 1 / float32(atlasH), 0, 0,
	}
	out := make([]byte, 0, uniformSize)
	for _, v := range vals {
		out = binary.LittleEndian.AppendUint32(out, math.Float32bits(v))
	}
	return out
}

func (u *Uploader) destroyTexture(t *atlasTexture) {
	if t.group != nil {
		u.device.DestroyBindGroup(t.group)
	}
	if t.view != nil {
		u.device.DestroyTextureView(t.view)
	}
	if t.texture != nil {
		u.device.DestroyTexture(t.texture)
	}
	*t = atlasTexture{}
}

// Destroy releases every texture and buffer.
func (u *Uploader) Destroy() {
	for f := range u.textures {
		u.destroyTexture(&u.textures[f])
	}
	for _, b := range []*hal.Buffer{&u.vertexBuf, &u.indexBuf, &u.uniformBuf} {
		if *b != nil {
			u.device.DestroyBuffer(*b)
			*b = nil
		}
	}
	u.vertexCap, u.indexQuads = 0, 0
}
