package glyphrun

import (
	"encoding/binary"
	"hash/fnv"
	"math"

	"github.com/gogpu/glyphrun/internal/wire"
)

// StrikeKind says what a strike produces.
type StrikeKind uint8

const (
	// StrikeKindMask produces device-space masks.
	StrikeKindMask StrikeKind = iota
	// StrikeKindTransformMask produces source-space masks scaled at draw time.
	StrikeKindTransformMask
	// StrikeKindSDFT produces distance-field masks at a canonical size.
	StrikeKindSDFT
	// StrikeKindPath produces outlines and drawables at a canonical size.
	StrikeKindPath

	strikeKindCount
)

// ScalerContextFlags are rasterization flags folded into a descriptor.
type ScalerContextFlags uint32

const (
	// ScalerFakeGamma applies a gamma hack to masks.
	ScalerFakeGamma ScalerContextFlags = 1 << iota
	// ScalerBoostContrast increases mask contrast.
	ScalerBoostContrast

	scalerFlagsMask = ScalerFakeGamma | ScalerBoostContrast
)

// Descriptor is the complete key of a strike: typeface, size, device
// transform and rasterization options. It is comparable and used as a map
// key on both sides of the wire.
type Descriptor struct {
	TypefaceID uint32
	TextSize   float32
	ScaleX     float32
	SkewX      float32
	// Matrix is the linear part (A, B, D, E) of the device transform baked
	// into the strike. Identity for source-space strikes.
	Matrix  [4]float32
	Kind    StrikeKind
	Edging  Edging
	Hinting Hinting
	Flags   ScalerContextFlags
}

// descriptorPayloadSize is the encoded size of the descriptor fields.
const descriptorPayloadSize = 12 * 4

// DeviceMatrix returns the descriptor's linear transform as a Matrix.
func (d *Descriptor) DeviceMatrix() Matrix {
	return Matrix{A: d.Matrix[0], B: d.Matrix[1], D: d.Matrix[2], E: d.Matrix[3]}
}

func (d *Descriptor) payload() []byte {
	var b [descriptorPayloadSize]byte
	put := func(i int, v uint32) { binary.LittleEndian.PutUint32(b[i*4:], v) }
	put(0, d.TypefaceID)
	put(1, math.Float32bits(d.TextSize))
	put(2, math.Float32bits(d.ScaleX))
	put(3, math.Float32bits(d.SkewX))
	for i, v := range d.Matrix {
		put(4+i, math.Float32bits(v))
	}
	put(8, uint32(d.Kind))
	put(9, uint32(d.Edging))
	put(10, uint32(d.Hinting))
	put(11, uint32(d.Flags))
	return b[:]
}

// Checksum returns the FNV-1a hash of the encoded fields.
func (d *Descriptor) Checksum() uint32 {
	h := fnv.New32a()
	_, _ = h.Write(d.payload()) // fnv.Write never returns an error
	return h.Sum32()
}

func (d *Descriptor) flatten(w *wire.Writer) {
	w.WriteInt(descriptorPayloadSize)
	w.WriteUint32(d.Checksum())
	for i, p := 0, d.payload(); i < len(p); i += 4 {
		w.WriteUint32(binary.LittleEndian.Uint32(p[i:]))
	}
}

// readDescriptor decodes a descriptor and validates its length, checksum
// and enum ranges.
func readDescriptor(r *wire.Reader) (Descriptor, bool) {
	var d Descriptor
	size := r.ReadInt()
	checksum := r.ReadUint32()
	if !r.Validate(size == descriptorPayloadSize) || !r.ValidateCanReadN(size, 1) {
		return d, false
	}
	d.TypefaceID = r.ReadUint32()
	d.TextSize = r.ReadScalar()
	d.ScaleX = r.ReadScalar()
	d.SkewX = r.ReadScalar()
	for i := range d.Matrix {
		d.Matrix[i] = r.ReadScalar()
	}
	kind := r.ReadUint32()
	edging := r.ReadUint32()
	hinting := r.ReadUint32()
	flags := r.ReadUint32()
	if !r.Validate(kind < uint32(strikeKindCount) &&
		edging <= uint32(EdgingSubpixelAntiAlias) &&
		hinting <= uint32(HintingFull) &&
		flags&^uint32(scalerFlagsMask) == 0) {
		return d, false
	}
	d.Kind = StrikeKind(kind)
	d.Edging = Edging(edging)
	d.Hinting = Hinting(hinting)
	d.Flags = ScalerContextFlags(flags)
	if !r.Validate(d.Checksum() == checksum) {
		return d, false
	}
	if !r.Validate(d.TextSize > 0 && !math.IsInf(float64(d.TextSize), 0)) {
		return d, false
	}
	return d, true
}
