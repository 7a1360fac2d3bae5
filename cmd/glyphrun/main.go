// Command glyphrun lays a line of text out with a font, classifies it into
// SubRuns and reports what each SubRun holds. It can also write the wire
// form of the container, check that it decodes again, and prepare the
// atlas draws the GPU renderer would submit.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/png"
	"log"
	"log/slog"
	"math"
	"os"

	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/text/unicode/norm"

	"github.com/gogpu/glyphrun"
	"github.com/gogpu/glyphrun/atlas"
	"github.com/gogpu/glyphrun/gpu"
	"github.com/gogpu/glyphrun/strike"
)

func main() {
	var (
		fontPath = flag.String("font", "", "TrueType or OpenType font file (default Go Regular)")
		text     = flag.String("text", "Hello, glyphs!", "text to lay out")
		size     = flag.Float64("size", 16, "text size in points")
		scale    = flag.Float64("scale", 1, "uniform scale of the draw matrix")
		rotate   = flag.Float64("rotate", 0, "rotation of the draw matrix in degrees")
		width    = flag.Int("width", 800, "device width")
		height   = flag.Int("height", 200, "device height")
		wireOut  = flag.String("wire", "", "write the serialized container to this file")
		atlasOut = flag.String("atlas", "", "write the A8 atlas page to this PNG file")
		verbose  = flag.Bool("v", false, "log atlas and strike events")
	)
	flag.Parse()

	if *verbose {
		glyphrun.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	data := goregular.TTF
	if *fontPath != "" {
		b, err := os.ReadFile(*fontPath)
		if err != nil {
			log.Fatalf("read font: %v", err)
		}
		data = b
	}

	reg := strike.NewRegistry()
	face, err := reg.Register(data)
	if err != nil {
		log.Fatalf("register font: %v", err)
	}
	strikes, err := strike.NewCache(reg, strike.DefaultCacheConfig())
	if err != nil {
		log.Fatalf("strike cache: %v", err)
	}
	defer strikes.Purge()

	// Glyph lookup is per code point, so compose first.
	ids := face.GlyphIndices(norm.NFC.String(*text))
	font := glyphrun.NewFont(face.ID(), float32(*size))
	positions := layout(face, font, ids)
	run, err := glyphrun.NewGlyphRun(font, ids, positions)
	if err != nil {
		log.Fatalf("glyph run: %v", err)
	}

	origin := glyphrun.Point{X: 20, Y: float32(*height) / 2}
	matrix := glyphrun.Scale(float32(*scale), float32(*scale)).
		Multiply(glyphrun.Rotate(*rotate * math.Pi / 180))
	paint := glyphrun.DefaultPaint()
	info := glyphrun.StrikeDeviceInfo{SDFTControl: glyphrun.DefaultSDFTControl()}

	c, excluded := glyphrun.MakeContainer(glyphrun.NewGlyphRunList(origin, run),
		glyphrun.PositionMatrix(matrix, origin), &paint, info, strikes)
	defer c.Release()
	report(c, excluded)

	if *wireOut != "" {
		if err := writeWire(c, *wireOut, strikes); err != nil {
			log.Fatalf("wire: %v", err)
		}
	}

	r := gpu.NewRenderer(*width, *height)
	r.SetMatrix(matrix)
	c.Draw(r, origin, &paint, r)
	m, err := atlas.NewManager(atlas.DefaultConfig())
	if err != nil {
		log.Fatalf("atlas: %v", err)
	}
	if err := prepare(r, m); err != nil {
		log.Fatalf("prepare: %v", err)
	}
	if *atlasOut != "" {
		if err := writeAtlas(m, *atlasOut); err != nil {
			log.Fatalf("atlas png: %v", err)
		}
	}
}

// layout places glyphs on the baseline by advance width.
func layout(face *strike.Typeface, font glyphrun.Font, ids []glyphrun.GlyphID) []glyphrun.Point {
	positions := make([]glyphrun.Point, len(ids))
	x := float32(0)
	for i, id := range ids {
		positions[i] = glyphrun.Point{X: x}
		x += face.Advance(id, font.Size)
	}
	return positions
}

func report(c *glyphrun.Container, excluded bool) {
	fmt.Printf("%d glyphs in %d sub runs (%d bytes)\n", c.GlyphCount(), len(c.SubRuns()), c.EstimatedSize())
	for i, sr := range c.SubRuns() {
		line := fmt.Sprintf("  %d: %-16v %3d glyphs", i, sr.Type(), sr.GlyphCount())
		if a, ok := sr.(glyphrun.AtlasSubRun); ok {
			line += fmt.Sprintf("  %v", a.MaskFormat())
		}
		fmt.Println(line)
	}
	if excluded {
		fmt.Println("  some glyphs were empty and left out")
	}
}

func writeWire(c *glyphrun.Container, path string, strikes *strike.Cache) error {
	data, err := c.MarshalBinary()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	back, err := glyphrun.Unflatten(data, strikes, nil)
	if err != nil {
		return fmt.Errorf("decode written container: %w", err)
	}
	defer back.Release()
	if back.GlyphCount() != c.GlyphCount() {
		return fmt.Errorf("decoded %d glyphs, wrote %d", back.GlyphCount(), c.GlyphCount())
	}
	fmt.Printf("wrote %d bytes to %s\n", len(data), path)
	return nil
}

func prepare(r *gpu.Renderer, m *atlas.Manager) error {
	batches, vertices := 0, 0
	err := r.Prepare(m, func(b []gpu.Batch) error {
		batches += len(b)
		for _, batch := range b {
			vertices += len(batch.Vertices)
		}
		return nil
	})
	if err != nil {
		return err
	}
	st := m.Stats()
	fmt.Printf("%d atlas draws, %d batches, %d vertex bytes, %d path glyph draws\n",
		len(r.Ops()), batches, vertices, len(r.Paths()))
	for f := range glyphrun.MaskFormatCount {
		if st.Glyphs[f] > 0 {
			fmt.Printf("  atlas %v: %d glyphs, %.1f%% used\n", f, st.Glyphs[f], 100*st.Utilization[f])
		}
	}
	return nil
}

func writeAtlas(m *atlas.Manager, path string) error {
	page, ok := m.TakeDirty(glyphrun.MaskA8)
	if !ok {
		return fmt.Errorf("A8 atlas page is empty")
	}
	img := &image.Gray{
		Pix:    page.Pix,
		Stride: page.Stride,
		Rect:   image.Rect(0, 0, page.Width, page.Height),
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
