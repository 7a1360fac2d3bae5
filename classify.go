package glyphrun

// maxReductionIterations bounds the fallback size search. Glyph sizes round
// to whole pixels, so the search normally ends within a few passes.
const maxReductionIterations = 64

// maximumReduction is the largest factor the fallback reduction may shrink
// by per pass; it keeps every pass making progress.
const maximumReduction = 1 - 1.0/MaxBilerpAtlasDimension

// PositionMatrix returns the matrix glyph positions relative to origin are
// mapped with when drawn at drawMatrix.
func PositionMatrix(drawMatrix Matrix, origin Point) Matrix {
	return positionMatrixFor(drawMatrix, origin)
}

// MakeContainer classifies every glyph of list into SubRuns for drawing at
// positionMatrix, which maps positions relative to list.Origin to device
// space (see PositionMatrix).
//
// Each run goes through the distance-field, mask, drawable, path and
// fallback stages in order; glyphs a stage rejects move on to the next.
// The boolean result reports that some glyph ended up in no SubRun, either
// because it is empty or because no stage could draw it.
func MakeContainer(list *GlyphRunList, positionMatrix Matrix, paint *Paint,
	info StrikeDeviceInfo, cache StrikeCache, opts ...ContainerOption) (*Container, bool) {
	var o containerOptions
	for _, opt := range opts {
		opt(&o)
	}
	a := o.arena
	if a == nil {
		a = newArenaFor(list)
	}
	c := newContainer(positionMatrix, newAllocator(a))
	if info.SDFTControl == nil {
		return c, false
	}

	cl := &classifier{
		container:      c,
		positionMatrix: positionMatrix,
		paint:          paint,
		props:          info.SurfaceProps,
		flags:          info.ScalerContextFlags,
		control:        info.SDFTControl,
		cache:          cache,
		addSubRuns:     !o.strikeCachesOnly,
	}
	for i := range list.Runs {
		before := len(c.subRuns)
		cl.classifyRun(&list.Runs[i])
		Logger().Debug("glyphrun: classified run",
			"tag", o.tag,
			"run", i,
			"glyphs", list.Runs[i].Len(),
			"subRuns", len(c.subRuns)-before,
			"excluded", cl.excluded)
	}
	return c, cl.excluded
}

// classifier holds the per-call state of MakeContainer. The buffers are
// reused across runs.
type classifier struct {
	container      *Container
	positionMatrix Matrix
	paint          *Paint
	props          SurfaceProps
	flags          ScalerContextFlags
	control        *SDFTControl
	cache          StrikeCache
	addSubRuns     bool

	accepted DrawableBuffer
	rejected SourceBuffer
	excluded bool
}

func (cl *classifier) add(sr SubRun, ok bool) {
	if !ok {
		cl.excluded = true
		return
	}
	cl.container.subRuns = append(cl.container.subRuns, sr)
}

// finishStage records glyphs the strike dropped and hands the rejects to
// the next stage.
func (cl *classifier) finishStage() {
	if cl.accepted.dropped(&cl.rejected) {
		cl.excluded = true
	}
	cl.rejected.flipRejectsToSource()
}

// addMultiMaskFormat emits one SubRun per maximal run of glyphs sharing a
// mask format.
func (cl *classifier) addMultiMaskFormat(accepted []AcceptedGlyph, makeGroup func(group []AcceptedGlyph, format MaskFormat) (SubRun, bool)) {
	if len(accepted) == 0 {
		return
	}
	start := 0
	format := accepted[0].Glyph.Format
	for i := 1; i <= len(accepted); i++ {
		if i < len(accepted) && accepted[i].Glyph.Format == format {
			continue
		}
		cl.add(makeGroup(accepted[start:i], format))
		if i < len(accepted) {
			start, format = i, accepted[i].Glyph.Format
		}
	}
}

func (cl *classifier) classifyRun(run *GlyphRun) {
	cl.rejected.setSource(run.source())
	font := run.Font
	alloc := cl.container.alloc

	if !cl.paint.IsHairline() && !cl.positionMatrix.HasPerspective() {
		cl.sdftStage(font)
	}

	if !cl.rejected.empty() && !cl.control.ForcePaths {
		if cl.positionMatrix.IsScaleTranslate() {
			cl.directMaskStage(font)
		} else {
			cl.transformedMaskStage(font)
		}
	}

	if !cl.rejected.empty() {
		spec := MakePathStrikeSpec(font, cl.props, cl.flags)
		if abs32(spec.StrikeToSourceScale) >= nearlyZero {
			strike := spec.FindOrCreateStrike(cl.cache)
			cl.accepted.startSource(cl.rejected.Source())
			strike.PrepareForDrawableDrawing(&cl.accepted, &cl.rejected)
			cl.finishStage()
			if cl.addSubRuns && len(cl.accepted.Accepted()) > 0 {
				sr := makeDrawable(cl.accepted.Accepted(), strike, spec.StrikeToSourceScale, alloc)
				cl.add(sr, sr != nil)
			}
			strike.Unref()
		}
	}

	if !cl.rejected.empty() {
		spec := MakePathStrikeSpec(font, cl.props, cl.flags)
		if abs32(spec.StrikeToSourceScale) >= nearlyZero {
			strike := spec.FindOrCreateStrike(cl.cache)
			cl.accepted.startSource(cl.rejected.Source())
			strike.PrepareForPathDrawing(&cl.accepted, &cl.rejected)
			cl.finishStage()
			if cl.addSubRuns && len(cl.accepted.Accepted()) > 0 {
				sr := makePath(cl.accepted.Accepted(), strike, spec.StrikeToSourceScale, font.Edging != EdgingAlias, alloc)
				cl.add(sr, sr != nil)
			}
			strike.Unref()
		}
	}

	if !cl.rejected.empty() {
		cl.fallbackStage(font)
	}

	if !cl.rejected.empty() {
		cl.excluded = true
	}
}

func (cl *classifier) sdftStage(font Font) {
	approx := font.Size * cl.positionMatrix.MaxScale()
	if !cl.control.IsSDFT(approx, cl.paint) {
		return
	}
	spec, matrixRange := cl.control.SDFTStrikeSpec(font, cl.positionMatrix, cl.props, cl.flags)
	if abs32(spec.StrikeToSourceScale) < nearlyZero {
		return
	}
	strike := spec.FindOrCreateStrike(cl.cache)
	defer strike.Unref()

	cl.accepted.startSource(cl.rejected.Source())
	strike.PrepareForSDFTDrawing(&cl.accepted, &cl.rejected)
	cl.finishStage()
	if cl.addSubRuns && len(cl.accepted.Accepted()) > 0 {
		sr := makeSDFT(cl.accepted.Accepted(), font, cl.props, strike, spec.StrikeToSourceScale, matrixRange, cl.container.alloc)
		cl.add(sr, sr != nil)
	}
}

func (cl *classifier) directMaskStage(font Font) {
	spec := MakeMaskStrikeSpec(font, cl.paint, cl.props, cl.flags, cl.positionMatrix)
	strike := spec.FindOrCreateStrike(cl.cache)
	defer strike.Unref()

	cl.rejected.rejectIf(func(g SourceGlyph) bool {
		return !inDirectRange(cl.positionMatrix.MapPoint(g.Pos))
	})
	cl.accepted.startDevicePositioning(cl.rejected.Source(), cl.positionMatrix, strike.RoundingSpec())
	strike.PrepareForMaskDrawing(&cl.accepted, &cl.rejected)
	cl.finishStage()
	if !cl.addSubRuns {
		return
	}
	cl.addMultiMaskFormat(cl.accepted.Accepted(), func(group []AcceptedGlyph, format MaskFormat) (SubRun, bool) {
		sr, skipped := makeDirectMask(group, cl.positionMatrix, strike, format, cl.container.alloc)
		if skipped > 0 {
			cl.excluded = true
		}
		return sr, sr != nil
	})
}

func (cl *classifier) transformedMaskStage(font Font) {
	spec := MakeTransformMaskStrikeSpec(font, cl.paint, cl.props, cl.flags, cl.positionMatrix.MaxScale())
	strike := spec.FindOrCreateStrike(cl.cache)
	defer strike.Unref()

	cl.accepted.startSource(cl.rejected.Source())
	strike.PrepareForMaskDrawing(&cl.accepted, &cl.rejected)
	cl.finishStage()
	if !cl.addSubRuns {
		return
	}
	cl.addTransformedMasks(strike, spec.StrikeToSourceScale)
}

func (cl *classifier) addTransformedMasks(strike Strike, strikeToSource float32) {
	cl.addMultiMaskFormat(cl.accepted.Accepted(), func(group []AcceptedGlyph, format MaskFormat) (SubRun, bool) {
		sr := makeTransformedMask(group, cl.positionMatrix, strike, strikeToSource, format, cl.container.alloc)
		return sr, sr != nil
	})
}

// fallbackStage draws glyphs nothing else could draw as bilinearly scaled
// masks, shrinking the font until the largest glyph fits the atlas with a
// one pixel border.
func (cl *classifier) fallbackStage(font Font) {
	src := cl.rejected.Source()
	ids := make([]GlyphID, len(src))
	for i, g := range src {
		ids[i] = g.ID
	}

	measure := func(f Font) float32 {
		s := MakeTransformMaskStrikeSpec(f, cl.paint, cl.props, cl.flags, 1).FindOrCreateStrike(cl.cache)
		defer s.Unref()
		return s.FindMaximumGlyphDimension(ids)
	}

	originalMax := measure(font)
	if originalMax == 0 {
		Logger().Debug("glyphrun: fallback abandoned, no glyph has pixels", "glyphs", len(ids))
		return
	}

	reduced := font
	strikeToSource := float32(1)
	if originalMax > MaxBilerpAtlasDimension {
		maxDim := originalMax
		reduction := MaxBilerpAtlasDimension / maxDim
		for i := 0; maxDim > MaxBilerpAtlasDimension; i++ {
			if i == maxReductionIterations {
				Logger().Warn("glyphrun: fallback abandoned, size search did not converge",
					"size", font.Size, "lastMax", maxDim)
				return
			}
			reduced.Size = font.Size * reduction
			maxDim = measure(reduced)
			if maxDim == 0 {
				Logger().Debug("glyphrun: fallback abandoned, reduced glyphs are empty", "size", reduced.Size)
				return
			}
			reduction *= min(maximumReduction, MaxBilerpAtlasDimension/maxDim)
		}
		strikeToSource = originalMax / maxDim
	}
	if abs32(strikeToSource) < nearlyZero {
		return
	}

	spec := MakeTransformMaskStrikeSpec(reduced, cl.paint, cl.props, cl.flags, 1)
	strike := spec.FindOrCreateStrike(cl.cache)
	defer strike.Unref()

	cl.accepted.startSource(src)
	strike.PrepareForMaskDrawing(&cl.accepted, &cl.rejected)
	cl.finishStage()
	if cl.addSubRuns {
		cl.addTransformedMasks(strike, strikeToSource)
	}
}
