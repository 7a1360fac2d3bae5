package atlas

// shelfPacker places rectangles left to right on horizontal shelves. A
// shelf is as tall as the tallest item placed on it; when no shelf has
// room a new one starts below the last.
type shelfPacker struct {
	width, height int
	padding       int
	shelves       []shelf
	usedArea      int
}

type shelf struct {
	y      int
	height int
	x      int // next free column
}

func newShelfPacker(width, height, padding int) *shelfPacker {
	return &shelfPacker{
		width:   width,
		height:  height,
		padding: padding,
		shelves: make([]shelf, 0, 16),
	}
}

// pack returns the top-left corner for a w×h rectangle, or false when the
// page has no room left.
func (p *shelfPacker) pack(w, h int) (x, y int, ok bool) {
	paddedW := w + p.padding
	paddedH := h + p.padding
	if paddedW > p.width || paddedH > p.height {
		return 0, 0, false
	}

	// Prefer the shelf that wastes the least height.
	best := -1
	for i := range p.shelves {
		s := &p.shelves[i]
		if s.x+paddedW > p.width || h > s.height {
			continue
		}
		if best < 0 || s.height < p.shelves[best].height {
			best = i
		}
	}
	// Only the last shelf can grow, and only into free rows.
	if n := len(p.shelves); best < 0 && n > 0 {
		s := &p.shelves[n-1]
		if s.x+paddedW <= p.width && s.y+paddedH <= p.height {
			s.height = max(s.height, h)
			best = n - 1
		}
	}
	if best >= 0 {
		s := &p.shelves[best]
		x, y = s.x, s.y
		s.x += paddedW
		p.usedArea += w * h
		return x, y, true
	}

	newY := 0
	if n := len(p.shelves); n > 0 {
		last := p.shelves[n-1]
		newY = last.y + last.height + p.padding
	}
	if newY+paddedH > p.height {
		return 0, 0, false
	}
	p.shelves = append(p.shelves, shelf{y: newY, height: h, x: paddedW})
	p.usedArea += w * h
	return 0, newY, true
}

func (p *shelfPacker) reset() {
	p.shelves = p.shelves[:0]
	p.usedArea = 0
}

// utilization returns the packed fraction of the page, 0 to 1.
func (p *shelfPacker) utilization() float64 {
	return float64(p.usedArea) / float64(p.width*p.height)
}
