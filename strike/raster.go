package strike

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"math"

	"github.com/go-text/typesetting/font"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
	"golang.org/x/image/vector"

	"github.com/gogpu/glyphrun"
	"github.com/gogpu/glyphrun/internal/gamma"
)

// distanceFieldPad is the border, in strike pixels, added around distance
// field glyphs so the field can fall off outside the outline.
const distanceFieldPad = 4

// rasterizeCoverage fills a w×h alpha mask with p mapped by m.
func rasterizeCoverage(p *glyphrun.Path, w, h int, m glyphrun.Matrix) *image.Alpha {
	z := vector.NewRasterizer(w, h)
	z.DrawOp = draw.Src
	p.Iterate(func(v glyphrun.Verb, pts []glyphrun.Point) {
		switch v {
		case glyphrun.VerbMove:
			a := m.MapPoint(pts[0])
			z.MoveTo(a.X, a.Y)
		case glyphrun.VerbLine:
			a := m.MapPoint(pts[0])
			z.LineTo(a.X, a.Y)
		case glyphrun.VerbQuad:
			c, a := m.MapPoint(pts[0]), m.MapPoint(pts[1])
			z.QuadTo(c.X, c.Y, a.X, a.Y)
		case glyphrun.VerbCubic:
			c1, c2, a := m.MapPoint(pts[0]), m.MapPoint(pts[1]), m.MapPoint(pts[2])
			z.CubeTo(c1.X, c1.Y, c2.X, c2.Y, a.X, a.Y)
		case glyphrun.VerbClose:
			z.ClosePath()
		}
	})
	dst := image.NewAlpha(image.Rect(0, 0, w, h))
	z.Draw(dst, dst.Bounds(), image.Opaque, image.Point{})
	return dst
}

// maskA8 renders g's outline as 8-bit coverage.
func maskA8(g *glyphrun.Glyph, aliased bool, lut *gamma.Table) []byte {
	w, h := int(g.Width), int(g.Height)
	cov := rasterizeCoverage(g.Path, w, h, glyphrun.Translate(-float32(g.Left), -float32(g.Top)))
	pix := cov.Pix
	if aliased {
		for i, c := range pix {
			if c >= 128 {
				pix[i] = 0xFF
			} else {
				pix[i] = 0
			}
		}
		return pix
	}
	lut.Apply(pix)
	return pix
}

// maskA565 renders g's outline at three samples per pixel horizontally and
// packs the red, green and blue subpixel coverage as little-endian 5:6:5.
func maskA565(g *glyphrun.Glyph, lut *gamma.Table) []byte {
	w, h := int(g.Width), int(g.Height)
	m := glyphrun.Scale(3, 1).Multiply(glyphrun.Translate(-float32(g.Left), -float32(g.Top)))
	cov := rasterizeCoverage(g.Path, 3*w, h, m)
	lut.Apply(cov.Pix)
	out := make([]byte, 2*w*h)
	for y := range h {
		row := cov.Pix[y*cov.Stride:]
		for x := range w {
			r, gr, b := uint16(row[3*x]), uint16(row[3*x+1]), uint16(row[3*x+2])
			v := (r>>3)<<11 | (gr>>2)<<5 | b>>3
			out[2*(y*w+x)] = byte(v)
			out[2*(y*w+x)+1] = byte(v >> 8)
		}
	}
	return out
}

// maskSolidARGB renders g's outline as premultiplied opaque black, R, G, B,
// A byte order.
func maskSolidARGB(g *glyphrun.Glyph, path *glyphrun.Path) []byte {
	w, h := int(g.Width), int(g.Height)
	cov := rasterizeCoverage(path, w, h, glyphrun.Translate(-float32(g.Left), -float32(g.Top)))
	out := make([]byte, 4*w*h)
	for i, a := range cov.Pix {
		out[4*i+3] = a
	}
	return out
}

// distanceField renders g's outline as a signed distance field. 128 is the
// edge, larger values are inside, and the field saturates distanceFieldPad
// pixels from the edge.
func distanceField(g *glyphrun.Glyph) []byte {
	w, h := int(g.Width), int(g.Height)
	cov := rasterizeCoverage(g.Path, w, h, glyphrun.Translate(-float32(g.Left), -float32(g.Top))).Pix
	inside := func(x, y int) bool {
		if x < 0 || y < 0 || x >= w || y >= h {
			return false
		}
		return cov[y*w+x] >= 128
	}

	out := make([]byte, w*h)
	const r = distanceFieldPad
	for y := range h {
		for x := range w {
			c := cov[y*w+x]
			var d float64
			if c != 0 && c != 0xFF {
				// Partial coverage is on the edge.
				d = (float64(c) - 127.5) / 255
			} else {
				in := c == 0xFF
				best := float64(r)
				for dy := -r; dy <= r; dy++ {
					for dx := -r; dx <= r; dx++ {
						if inside(x+dx, y+dy) == in {
							continue
						}
						best = min(best, math.Hypot(float64(dx), float64(dy))-0.5)
					}
				}
				d = best
				if !in {
					d = -d
				}
			}
			out[y*w+x] = encodeDistance(d)
		}
	}
	return out
}

func encodeDistance(d float64) byte {
	v := 128 + d*127/distanceFieldPad
	return byte(min(max(math.Round(v), 0), 255))
}

// decodeBitmap decodes an embedded bitmap glyph.
func decodeBitmap(b font.GlyphBitmap) (image.Image, error) {
	switch b.Format {
	case font.PNG:
		return png.Decode(bytes.NewReader(b.Data))
	case font.JPG:
		return jpeg.Decode(bytes.NewReader(b.Data))
	case font.TIFF:
		return tiff.Decode(bytes.NewReader(b.Data))
	case font.BlackAndWhite:
		img := image.NewAlpha(image.Rect(0, 0, b.Width, b.Height))
		for i := range b.Width * b.Height {
			if i/8 < len(b.Data) && b.Data[i/8]&(0x80>>(i%8)) != 0 {
				img.Pix[i] = 0xFF
			}
		}
		return img, nil
	default:
		return nil, fmt.Errorf("strike: unsupported bitmap format %d", b.Format)
	}
}

// maskBitmap scales a decoded bitmap to the glyph box as premultiplied
// R, G, B, A.
func maskBitmap(g *glyphrun.Glyph, src image.Image) []byte {
	w, h := int(g.Width), int(g.Height)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if sb := src.Bounds(); sb.Dx() == w && sb.Dy() == h {
		draw.Draw(dst, dst.Bounds(), src, sb.Min, draw.Src)
	} else {
		draw.BiLinear.Scale(dst, dst.Bounds(), src, sb, draw.Src, nil)
	}
	return dst.Pix
}
