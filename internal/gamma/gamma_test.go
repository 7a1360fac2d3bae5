package gamma

import (
	"math"
	"testing"
)

func TestTablesKeepEndpoints(t *testing.T) {
	for _, fake := range []bool{false, true} {
		for _, boost := range []bool{false, true} {
			tab := For(fake, boost)
			if tab[0] != 0 || tab[255] != 255 {
				t.Errorf("For(%v, %v): endpoints %d, %d, want 0, 255", fake, boost, tab[0], tab[255])
			}
			for i := 1; i < 256; i++ {
				if tab[i] < tab[i-1] {
					t.Errorf("For(%v, %v) not monotonic at %d: %d < %d", fake, boost, i, tab[i], tab[i-1])
					break
				}
			}
		}
	}
}

func TestIdentityTable(t *testing.T) {
	tab := For(false, false)
	if !tab.IsIdentity() {
		t.Fatal("For(false, false) is not the identity table")
	}
	for i, v := range tab {
		if int(v) != i {
			t.Fatalf("identity[%d] = %d", i, v)
		}
	}
	pix := []byte{0, 10, 200}
	tab.Apply(pix)
	if pix[1] != 10 {
		t.Errorf("identity Apply changed a pixel: %v", pix)
	}
}

func TestFakeGammaLiftsMidCoverage(t *testing.T) {
	tab := For(true, false)
	if tab.IsIdentity() {
		t.Fatal("fake gamma table is the identity")
	}
	if tab[128] <= 128 {
		t.Errorf("fake gamma[128] = %d, want > 128", tab[128])
	}
	pix := []byte{128}
	tab.Apply(pix)
	if pix[0] != tab[128] {
		t.Errorf("Apply wrote %d, want %d", pix[0], tab[128])
	}
}

func TestBoostContrastIsSymmetric(t *testing.T) {
	tab := For(false, true)
	for i := range 128 {
		lo, hi := int(tab[i]), int(tab[255-i])
		if d := lo + hi - 255; d < -1 || d > 1 {
			t.Errorf("boost[%d] + boost[%d] = %d, want 255", i, 255-i, lo+hi)
		}
	}
	if tab[64] >= 64 || tab[192] <= 192 {
		t.Errorf("boost did not push values apart: [64]=%d [192]=%d", tab[64], tab[192])
	}
}

func TestSRGBRoundTrip(t *testing.T) {
	for i := range 256 {
		s := float64(i) / 255
		if got := LinearToSRGB(SRGBToLinear(s)); math.Abs(got-s) > 1e-9 {
			t.Errorf("round trip of %v = %v", s, got)
		}
	}
}
