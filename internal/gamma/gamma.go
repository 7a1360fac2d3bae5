// Package gamma provides the coverage lookup tables applied to glyph masks.
//
// Masks are rasterized as linear coverage. Drawn over a background in sRGB
// without linear blending, thin stems look too light; the fake gamma table
// lifts mid-coverage values the way an sRGB encode would, and the contrast
// table pushes values away from 50% coverage.
package gamma

import "math"

// Table maps 8-bit linear coverage to adjusted coverage.
type Table [256]uint8

// contrast is how strongly BoostContrast pushes values away from the middle.
const contrast = 0.25

var tables [4]Table

func init() {
	for i := range tables {
		fakeGamma, boost := i&1 != 0, i&2 != 0
		t := &tables[i]
		for c := range t {
			v := float64(c) / 255
			if fakeGamma {
				v = LinearToSRGB(v)
			}
			if boost {
				v = boostContrast(v)
			}
			t[c] = clampAndRound(v)
		}
	}
}

// For returns the table for the given flags. The identity table is
// returned when neither is set.
func For(fakeGamma, boostContrast bool) *Table {
	i := 0
	if fakeGamma {
		i |= 1
	}
	if boostContrast {
		i |= 2
	}
	return &tables[i]
}

// IsIdentity reports whether the table leaves coverage unchanged.
func (t *Table) IsIdentity() bool { return t == &tables[0] }

// Apply rewrites every byte of pix through the table.
func (t *Table) Apply(pix []byte) {
	if t.IsIdentity() {
		return
	}
	for i, c := range pix {
		pix[i] = t[c]
	}
}

// SRGBToLinear converts an sRGB component to linear.
// Input and output are in range [0,1].
func SRGBToLinear(s float64) float64 {
	if s <= 0.04045 {
		return s / 12.92
	}
	return math.Pow((s+0.055)/1.055, 2.4)
}

// LinearToSRGB converts a linear component to sRGB.
// Input and output are in range [0,1].
func LinearToSRGB(l float64) float64 {
	if l <= 0.0031308 {
		return l * 12.92
	}
	return 1.055*math.Pow(l, 1.0/2.4) - 0.055
}

// boostContrast is a symmetric S-curve through 0, 0.5 and 1.
func boostContrast(v float64) float64 {
	d := v - 0.5
	return 0.5 + d*(1+contrast) - 4*contrast*d*d*d
}

// clampAndRound clamps v to [0,1] and converts to uint8 with rounding.
func clampAndRound(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}
