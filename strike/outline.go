package strike

import (
	"github.com/go-text/typesetting/font"
	ot "github.com/go-text/typesetting/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/gogpu/glyphrun"
)

// sfntPath converts sfnt segments, in pixels with y down, to a path mapped
// by m. Contours are closed explicitly.
func sfntPath(segs sfnt.Segments, m glyphrun.Matrix) *glyphrun.Path {
	if len(segs) == 0 {
		return nil
	}
	p := &glyphrun.Path{}
	pt := func(q fixed.Point26_6) glyphrun.Point {
		return m.MapPoint(glyphrun.Point{X: float32(q.X) / 64, Y: float32(q.Y) / 64})
	}
	open := false
	for _, s := range segs {
		switch s.Op {
		case sfnt.SegmentOpMoveTo:
			if open {
				p.Close()
			}
			a := pt(s.Args[0])
			p.MoveTo(a.X, a.Y)
			open = true
		case sfnt.SegmentOpLineTo:
			a := pt(s.Args[0])
			p.LineTo(a.X, a.Y)
		case sfnt.SegmentOpQuadTo:
			c, a := pt(s.Args[0]), pt(s.Args[1])
			p.QuadTo(c.X, c.Y, a.X, a.Y)
		case sfnt.SegmentOpCubeTo:
			c1, c2, a := pt(s.Args[0]), pt(s.Args[1]), pt(s.Args[2])
			p.CubicTo(c1.X, c1.Y, c2.X, c2.Y, a.X, a.Y)
		}
	}
	if open {
		p.Close()
	}
	return p
}

// goTextPath converts a go-text outline, in font units with y up, to a
// path at scale pixels per unit mapped by m.
func goTextPath(o font.GlyphOutline, scale float32, m glyphrun.Matrix) *glyphrun.Path {
	if len(o.Segments) == 0 {
		return nil
	}
	p := &glyphrun.Path{}
	pt := func(q ot.SegmentPoint) glyphrun.Point {
		return m.MapPoint(glyphrun.Point{X: q.X * scale, Y: -q.Y * scale})
	}
	open := false
	for _, s := range o.Segments {
		switch s.Op {
		case ot.SegmentOpMoveTo:
			if open {
				p.Close()
			}
			a := pt(s.Args[0])
			p.MoveTo(a.X, a.Y)
			open = true
		case ot.SegmentOpLineTo:
			a := pt(s.Args[0])
			p.LineTo(a.X, a.Y)
		case ot.SegmentOpQuadTo:
			c, a := pt(s.Args[0]), pt(s.Args[1])
			p.QuadTo(c.X, c.Y, a.X, a.Y)
		case ot.SegmentOpCubeTo:
			c1, c2, a := pt(s.Args[0]), pt(s.Args[1]), pt(s.Args[2])
			p.CubicTo(c1.X, c1.Y, c2.X, c2.Y, a.X, a.Y)
		}
	}
	if open {
		p.Close()
	}
	return p
}

// hasArea reports whether the path covers more than a line.
func hasArea(p *glyphrun.Path) bool {
	if p.IsEmpty() {
		return false
	}
	b := p.Bounds()
	return b.Right > b.Left && b.Bottom > b.Top
}
