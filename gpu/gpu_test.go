//go:build !nogpu

package gpu

import (
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/gogpu/glyphrun"
	"github.com/gogpu/glyphrun/atlas"
	"github.com/gogpu/glyphrun/strike"
)

// newNoopDevice opens a device on the noop backend.
func newNoopDevice(t *testing.T) (hal.Device, hal.Queue) {
	t.Helper()
	instance, err := noop.API{}.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		openDev.Device.Destroy()
		instance.Destroy()
	})
	return openDev.Device, openDev.Queue
}

type fontEnv struct {
	face    *strike.Typeface
	strikes *strike.Cache
}

func newFontEnv(t *testing.T) fontEnv {
	t.Helper()
	reg := strike.NewRegistry()
	face, err := reg.Register(goregular.TTF)
	if err != nil {
		t.Fatal(err)
	}
	strikes, err := strike.NewCache(reg, strike.DefaultCacheConfig())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(strikes.Purge)
	return fontEnv{face: face, strikes: strikes}
}

// container lays text out on one line starting at origin.
func (e fontEnv) container(t *testing.T, size float32, text string, m glyphrun.Matrix, origin glyphrun.Point) *glyphrun.Container {
	t.Helper()
	ids := e.face.GlyphIndices(text)
	pos := make([]glyphrun.Point, len(ids))
	for i := range pos {
		pos[i] = glyphrun.Point{X: float32(i) * size * 0.6}
	}
	run, err := glyphrun.NewGlyphRun(glyphrun.NewFont(e.face.ID(), size), ids, pos)
	if err != nil {
		t.Fatal(err)
	}
	paint := glyphrun.DefaultPaint()
	info := glyphrun.StrikeDeviceInfo{SDFTControl: glyphrun.DefaultSDFTControl()}
	c, _ := glyphrun.MakeContainer(glyphrun.NewGlyphRunList(origin, run), glyphrun.PositionMatrix(m, origin), &paint, info, e.strikes)
	t.Cleanup(c.Release)
	return c
}

func newManager(t *testing.T, cfg atlas.Config) *atlas.Manager {
	t.Helper()
	m, err := atlas.NewManager(cfg)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

// countingPass records the draw state a pipeline sets.
type countingPass struct {
	*noop.RenderPassEncoder
	pipelines int
	indices   []uint32
	scissors  [][4]uint32
	offsets   []uint64
}

func newCountingPass() *countingPass {
	return &countingPass{RenderPassEncoder: &noop.RenderPassEncoder{}}
}

func (p *countingPass) SetPipeline(hal.RenderPipeline) { p.pipelines++ }

func (p *countingPass) SetVertexBuffer(_ uint32, _ hal.Buffer, offset uint64) {
	p.offsets = append(p.offsets, offset)
}

func (p *countingPass) SetScissorRect(x, y, w, h uint32) {
	p.scissors = append(p.scissors, [4]uint32{x, y, w, h})
}

func (p *countingPass) DrawIndexed(indexCount, _, _ uint32, _ int32, _ uint32) {
	p.indices = append(p.indices, indexCount)
}
