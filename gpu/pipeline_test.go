//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/google/go-cmp/cmp"

	"github.com/gogpu/glyphrun"
	"github.com/gogpu/glyphrun/atlas"
)

func TestQuadIndices(t *testing.T) {
	data := quadIndices(2)
	got := make([]uint32, len(data)/4)
	for i := range got {
		got[i] = binary.LittleEndian.Uint32(data[i*4:])
	}
	want := []uint32{0, 1, 2, 2, 1, 3, 4, 5, 6, 6, 5, 7}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("quadIndices mismatch (-want +got):\n%s", diff)
	}
}

func TestTextUniforms(t *testing.T) {
	data := textUniforms(200, 100, 1024, 512)
	if len(data) != uniformSize {
		t.Fatalf("len = %d, want %d", len(data), uniformSize)
	}
	got := make([]float32, 8)
	for i := range got {
		got[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	want := []float32{0.01, -0.02, -1, 1, 1.0 / 1024, 1.0 / 512, 0, 0}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("uniforms mismatch (-want +got):\n%s", diff)
	}
}

func TestPipelineCachesRenderPipelines(t *testing.T) {
	device, _ := newNoopDevice(t)
	p, err := NewPipeline(device, gputypes.TextureFormatBGRA8Unorm)
	if err != nil {
		t.Fatalf("NewPipeline() error = %v", err)
	}
	defer p.Destroy()

	sdf := glyphrun.DFEnabled | glyphrun.DFSimilarity
	for _, k := range []struct {
		format glyphrun.MaskFormat
		df     glyphrun.DistanceFieldFlags
	}{
		{glyphrun.MaskA8, 0},
		{glyphrun.MaskA8, 0},
		{glyphrun.MaskA8, sdf},
		{glyphrun.MaskA8, sdf | glyphrun.DFScaleOnly},
		{glyphrun.MaskARGB, 0},
	} {
		if _, err := p.renderPipeline(k.format, k.df); err != nil {
			t.Fatalf("renderPipeline(%v, %b) error = %v", k.format, k.df, err)
		}
	}
	if len(p.pipelines) != 3 {
		t.Errorf("got %d pipelines, want 3", len(p.pipelines))
	}
	p.Destroy()
	p.Destroy()
}

func TestRecordBeforeUpload(t *testing.T) {
	device, queue := newNoopDevice(t)
	p, err := NewPipeline(device, gputypes.TextureFormatRGBA8Unorm)
	if err != nil {
		t.Fatal(err)
	}
	defer p.Destroy()
	up := NewUploader(device, queue, 100, 100)
	defer up.Destroy()

	draws := []Draw{{Batch: Batch{Format: glyphrun.MaskA8, GlyphCount: 1}}}
	if err := p.Record(newCountingPass(), up, draws); err == nil {
		t.Error("Record() before upload succeeded")
	}
	if err := p.Record(newCountingPass(), up, nil); err != nil {
		t.Errorf("Record() with no draws error = %v", err)
	}
}

func TestUploadAndRecord(t *testing.T) {
	device, queue := newNoopDevice(t)
	env := newFontEnv(t)
	m := newManager(t, atlas.DefaultConfig())

	p, err := NewPipeline(device, gputypes.TextureFormatBGRA8Unorm)
	if err != nil {
		t.Fatal(err)
	}
	defer p.Destroy()
	up := NewUploader(device, queue, 400, 100)
	defer up.Destroy()

	r := NewRenderer(400, 100)
	paint := glyphrun.DefaultPaint()
	origin := glyphrun.Point{X: 10, Y: 60}
	env.container(t, 12, "mask", glyphrun.Identity(), origin).Draw(r, origin, &paint, r)
	r.SetClip(glyphrun.IRect{Right: 60, Bottom: 100})
	env.container(t, 48, "Field", glyphrun.Identity(), origin).Draw(r, origin, &paint, r)
	if len(r.Ops()) != 2 {
		t.Fatalf("got %d ops, want 2", len(r.Ops()))
	}

	pass := newCountingPass()
	var pages int
	err = r.Prepare(m, func(batches []Batch) error {
		n, err := up.UploadAtlas(m)
		if err != nil {
			return err
		}
		pages += n
		draws, err := up.UploadBatches(batches)
		if err != nil {
			return err
		}
		return p.Record(pass, up, draws)
	})
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}

	if pages != 1 {
		t.Errorf("uploaded %d pages, want 1", pages)
	}
	if up.Texture(glyphrun.MaskA8) == nil {
		t.Error("A8 atlas texture not created")
	}
	if diff := cmp.Diff([]uint32{4 * indicesPerGlyph, 5 * indicesPerGlyph}, pass.indices); diff != "" {
		t.Errorf("index counts mismatch (-want +got):\n%s", diff)
	}
	wantOffset := uint64(4 * glyphrun.VerticesPerGlyph * glyphrun.Mask2DVertexStride)
	if diff := cmp.Diff([]uint64{0, wantOffset}, pass.offsets); diff != "" {
		t.Errorf("vertex offsets mismatch (-want +got):\n%s", diff)
	}
	wantScissors := [][4]uint32{{0, 0, 60, 100}, {0, 0, 400, 100}}
	if diff := cmp.Diff(wantScissors, pass.scissors); diff != "" {
		t.Errorf("scissors mismatch (-want +got):\n%s", diff)
	}
	if pass.pipelines != 2 {
		t.Errorf("SetPipeline called %d times, want 2", pass.pipelines)
	}

	// Nothing changed, so a second upload writes no pages.
	if n, err := up.UploadAtlas(m); err != nil || n != 0 {
		t.Errorf("second UploadAtlas() = %d, %v; want 0, nil", n, err)
	}
}
