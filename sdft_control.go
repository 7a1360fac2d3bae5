package glyphrun

// Distance-field strike size bands.
const (
	smallDFFontLimit  = 32
	mediumDFFontLimit = 72
	largeDFFontSize   = 162
)

// DistanceFieldInset is the number of pixels a distance-field glyph box is
// inset before it is drawn.
const DistanceFieldInset = 2

// SDFTControl decides when text is drawn with signed distance fields and
// which canonical strike size is used.
type SDFTControl struct {
	// MinDistanceFieldFontSize is the smallest device text size drawn as SDFT.
	MinDistanceFieldFontSize float32
	// MaxDistanceFieldFontSize is the largest device text size drawn as SDFT.
	MaxDistanceFieldFontSize float32
	// AbleToUseSDFT enables the SDF stage.
	AbleToUseSDFT bool
	// UseSDFTForSmallText lowers the minimum size to the small band floor.
	UseSDFTForSmallText bool
	// ForcePaths skips the mask stage so large text falls through to paths.
	ForcePaths bool
}

// DefaultSDFTControl returns the control used when none is configured.
func DefaultSDFTControl() *SDFTControl {
	return &SDFTControl{
		MinDistanceFieldFontSize: 18,
		MaxDistanceFieldFontSize: 324,
		AbleToUseSDFT:            true,
	}
}

// Validate checks the size band.
func (c *SDFTControl) Validate() error {
	if c.MinDistanceFieldFontSize <= 0 {
		return &ConfigError{Type: "sdft control", Field: "MinDistanceFieldFontSize", Reason: "must be positive"}
	}
	if c.MaxDistanceFieldFontSize < c.MinDistanceFieldFontSize {
		return &ConfigError{Type: "sdft control", Field: "MaxDistanceFieldFontSize", Reason: "must be at least MinDistanceFieldFontSize"}
	}
	if c.MaxDistanceFieldFontSize <= mediumDFFontLimit {
		return &ConfigError{Type: "sdft control", Field: "MaxDistanceFieldFontSize", Reason: "must exceed the medium band limit 72"}
	}
	return nil
}

func (c *SDFTControl) minSize() float32 {
	if c.UseSDFTForSmallText {
		return min(c.MinDistanceFieldFontSize, 9)
	}
	return c.MinDistanceFieldFontSize
}

// IsSDFT reports whether text of the given approximate device size, drawn
// with paint, should use distance fields. The minimum is exclusive, which
// keeps the creation scale inside the SubRun's reuse band.
func (c *SDFTControl) IsSDFT(approximateDeviceTextSize float32, paint *Paint) bool {
	return c.AbleToUseSDFT &&
		paint.MaskFilter == nil &&
		paint.Style == StyleFill &&
		0 < approximateDeviceTextSize &&
		c.minSize() < approximateDeviceTextSize &&
		approximateDeviceTextSize <= c.MaxDistanceFieldFontSize
}

// SDFTStrikeSpec returns the distance-field strike for font seen through
// positionMatrix, with the matrix scale band the strike stays sharp in.
func (c *SDFTControl) SDFTStrikeSpec(font Font, positionMatrix Matrix, props SurfaceProps, flags ScalerContextFlags) (StrikeSpec, SDFTMatrixRange) {
	textSize := font.Size
	scaled := textSize * positionMatrix.MaxScale()
	if scaled <= 0 || abs32(scaled-textSize) < nearlyZero {
		scaled = textSize
	}

	var floor, ceil, dfSize float32
	switch {
	case scaled <= smallDFFontLimit:
		floor, ceil, dfSize = c.minSize(), smallDFFontLimit, smallDFFontLimit
	case scaled <= mediumDFFontLimit:
		floor, ceil, dfSize = smallDFFontLimit, mediumDFFontLimit, mediumDFFontLimit
	default:
		floor, ceil, dfSize = mediumDFFontLimit, c.MaxDistanceFieldFontSize, largeDFFontSize
	}

	d := baseDescriptor(font, props, flags)
	d.Kind = StrikeKindSDFT
	d.TextSize = dfSize
	d.Edging = EdgingAntiAlias
	d.Hinting = HintingNormal

	spec := StrikeSpec{Descriptor: d, StrikeToSourceScale: textSize / dfSize}
	return spec, SDFTMatrixRange{Min: floor / textSize, Max: ceil / textSize}
}

// SDFTMatrixRange is the band of matrix scales a distance-field SubRun can
// be redrawn at without regenerating.
type SDFTMatrixRange struct {
	Min, Max float32
}

// InRange reports whether m's maximum scale falls in (Min, Max].
func (r SDFTMatrixRange) InRange(m Matrix) bool {
	s := m.MaxScale()
	return r.Min < s && s <= r.Max
}
