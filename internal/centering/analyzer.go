package centering

import (
	"image"
	"math"
	"slices"

	"cardscan/internal/config"
	"cardscan/internal/quad"
)

const (
	baseConfidence        = 0.9
	smallImagePenalty     = 0.2
	smallAreaPenalty      = 0.15
	edgeTouchPenalty      = 0.15
	derivedInnerPenalty   = 0.1
	confidenceFloor       = 0.05
	softWarningConfidence = 0.35
)

// Analyzer measures card centering from a photograph of one face.
type Analyzer struct {
	geometry  config.Geometry
	centering config.Centering
	tiers     config.Tiers
}

// NewAnalyzer builds an analyzer from the geometry, centering, and tier
// sections of cfg.
func NewAnalyzer(cfg *config.Config) *Analyzer {
	return &Analyzer{
		geometry:  cfg.Geometry,
		centering: cfg.Centering,
		tiers:     cfg.Tiers,
	}
}

// Analyze locates the outer card boundary and inner printed frame of img and
// scores centering. A user quad, when supplied and accepted by the quad
// validator, replaces automatic outer detection; a rejected quad falls back
// to detection and is recorded in the result.
func (a *Analyzer) Analyze(face Face, img image.Image, userQuad *quad.Raw) Result {
	if img == nil || img.Bounds().Empty() {
		return Result{Failure: FailureInvalidImage}
	}
	imageW, imageH := img.Bounds().Dx(), img.Bounds().Dy()
	f, scale := luminanceField(img, a.centering.WorkingMaxSide)

	var (
		flags      []string
		outcome    *quad.Outcome
		accepted   *quad.Quad
		outerWork  Box
		outerFound bool
	)
	if userQuad != nil {
		q, o := quad.ValidateRaw(*userQuad, imageW, imageH, quad.IdentityOptions(a.geometry))
		outcome = &o
		if o.Accepted {
			norm := q.Normalized(imageW, imageH)
			accepted = &norm
			minX, minY, maxX, maxY := norm.Bounds()
			outerPx := boxFromNorm(minX, minY, maxX, maxY, imageW, imageH)
			outerWork = scaleBox(outerPx, scale)
			outerFound = true
			flags = append(flags, FlagUserQuad)
		} else {
			flags = append(flags, FlagUserQuadRejected)
		}
	}
	if !outerFound {
		outerWork, outerFound = detectBox(f, image.Rect(0, 0, f.w, f.h), edgeParams{
			k:           a.centering.OuterThresholdK,
			minFraction: a.centering.OuterMinFraction,
			noiseFloor:  a.centering.NoiseFloor,
			minBox:      a.centering.MinBoxPixels,
		})
	}
	if !outerFound {
		return Result{
			Failure:     FailureBorderNotDetected,
			QuadOutcome: outcome,
		}
	}

	innerWork, innerDerived := a.detectInner(f, outerWork)
	outer := scaleBox(outerWork, 1/scale)
	inner := scaleBox(innerWork, 1/scale)
	if innerDerived {
		flags = append(flags, FlagInnerMarginDerived)
	}

	res := a.measure(face, imageW, imageH, outer, inner, flags)
	res.QuadOutcome = outcome
	res.AcceptedQuad = accepted
	return res
}

// Measure scores centering for boxes that were located elsewhere, such as a
// stored scan being re-scored under new thresholds. imageW and imageH may be
// zero when the frame is unknown; frame-relative checks are then skipped.
func (a *Analyzer) Measure(face Face, outer, inner Box, imageW, imageH int, innerDerived bool) Result {
	if outer.Empty() {
		return Result{Failure: FailureBorderNotDetected}
	}
	var flags []string
	if innerDerived {
		flags = append(flags, FlagInnerMarginDerived)
	}
	return a.measure(face, imageW, imageH, outer, inner, flags)
}

// detectInner refines the inner printed frame inside the outer box. When no
// frame can be found it falls back to a fixed inset and reports true.
func (a *Analyzer) detectInner(f field, outer Box) (Box, bool) {
	fallback := shrink(outer, a.centering.InnerShrink)
	box, ok := detectBox(f, fallback.rect(), edgeParams{
		k:           -a.centering.InnerThresholdK,
		minFraction: a.centering.InnerMinFraction,
		noiseFloor:  a.centering.NoiseFloor,
		minBox:      a.centering.MinBoxPixels,
	})
	if !ok || !contains(fallback, box) {
		return fallback, true
	}
	return box, false
}

func (a *Analyzer) measure(face Face, imageW, imageH int, outer, inner Box, flags []string) Result {
	m := &Measurement{
		Face:        face,
		ImageWidth:  imageW,
		ImageHeight: imageH,
		Outer:       outer,
		Inner:       inner,
		OuterNorm:   outer.Normalize(imageW, imageH),
		InnerNorm:   inner.Normalize(imageW, imageH),
		Flags:       slices.Clone(flags),
	}

	failure, soft := a.checkOuter(m)
	a.scoreMargins(m)
	m.DetectionConfidence = a.detectionConfidence(m, soft)
	if failure != FailureNone {
		m.Invalid = true
		m.Flags = append(m.Flags, FlagInvalid)
	}

	m.Quality = EvaluateQuality(m, a.centering)
	m.Confidence = m.Quality.Confidence
	if m.Invalid || m.Quality.Degenerate {
		m.TagTier = TierBelowGem
		m.Subgrade = a.tiers.FloorSubgrade
	} else {
		m.TagTier = ClassifyTier(face, m.FaceWorst, a.tiers)
		m.Subgrade = Subgrade(face, m.FaceWorst, a.tiers)
	}
	return Result{Measurement: m, Failure: failure}
}

// checkOuter applies the degenerate-box checks in order and returns the
// first failure, plus whether a soft warning was raised.
func (a *Analyzer) checkOuter(m *Measurement) (Failure, bool) {
	outer := m.Outer
	aspect := float64(outer.W) / float64(outer.H)
	if aspect > 1 {
		aspect = 1 / aspect
	}
	soft := false
	if aspect < a.geometry.SoftAspectLow || aspect > a.geometry.SoftAspectHigh {
		soft = true
		m.Flags = append(m.Flags, FlagSoftAspect)
	}

	if m.ImageWidth <= 0 || m.ImageHeight <= 0 {
		m.Flags = append(m.Flags, FlagUnknownFrame)
		if aspect < a.geometry.AspectMin || aspect > a.geometry.AspectMax {
			return FailureExcessivePerspective, soft
		}
		return FailureNone, soft
	}

	imageW, imageH := float64(m.ImageWidth), float64(m.ImageHeight)
	cov := a.centering.FullFrameCoverage
	if float64(outer.W) >= cov*imageW && float64(outer.H) >= cov*imageH {
		m.Flags = append(m.Flags, FlagFullFrameOuter)
		return FailureBorderNotDetected, soft
	}
	if float64(outer.W*outer.H)/(imageW*imageH) < a.geometry.IdentityMinArea {
		return FailureQuadTooSmall, soft
	}
	if aspect < a.geometry.AspectMin || aspect > a.geometry.AspectMax {
		return FailureExcessivePerspective, soft
	}

	margin := a.centering.EdgeMarginFraction * math.Min(imageW, imageH)
	touchX := float64(outer.X) <= margin || imageW-float64(outer.Right()) <= margin
	touchY := float64(outer.Y) <= margin || imageH-float64(outer.Bottom()) <= margin
	if touchX || touchY {
		m.Flags = append(m.Flags, FlagTouchesEdge)
		tol := a.centering.EdgeSpanTolerance
		if (touchX && float64(outer.W) < tol*imageW) || (touchY && float64(outer.H) < tol*imageH) {
			return FailureQuadOutOfFrame, soft
		}
		m.Flags = append(m.Flags, FlagEdgeTouchSoft)
		soft = true
	}
	return FailureNone, soft
}

// scoreMargins fills margins, ratios and worst-axis percentages. An axis
// whose margins sum to zero has no ratio.
func (a *Analyzer) scoreMargins(m *Measurement) {
	m.Left = m.Inner.X - m.Outer.X
	m.Right = m.Outer.Right() - m.Inner.Right()
	m.Top = m.Inner.Y - m.Outer.Y
	m.Bottom = m.Outer.Bottom() - m.Inner.Bottom()

	m.LRRatio, m.WorstLR = axisRatio(m.Left, m.Right)
	m.TBRatio, m.WorstTB = axisRatio(m.Top, m.Bottom)
	switch {
	case m.WorstLR != nil && m.WorstTB != nil:
		m.FaceWorst = ptr(math.Max(*m.WorstLR, *m.WorstTB))
	case m.WorstLR != nil:
		m.FaceWorst = ptr(*m.WorstLR)
	case m.WorstTB != nil:
		m.FaceWorst = ptr(*m.WorstTB)
	}
}

func axisRatio(near, far int) (*float64, *float64) {
	total := near + far
	if total == 0 {
		return nil, nil
	}
	ratio := float64(near) / float64(total)
	worst := math.Max(round1(ratio*100), round1((1-ratio)*100))
	return &ratio, &worst
}

func (a *Analyzer) detectionConfidence(m *Measurement, soft bool) float64 {
	conf := baseConfidence
	if m.ImageWidth > 0 && m.ImageHeight > 0 {
		if min(m.ImageWidth, m.ImageHeight) < a.centering.SmallImagePixels {
			conf -= smallImagePenalty
			m.Flags = append(m.Flags, FlagSmallImage)
		}
		area := float64(m.Outer.W*m.Outer.H) / float64(m.ImageWidth*m.ImageHeight)
		if area < a.centering.SmallAreaFraction {
			conf -= smallAreaPenalty
			m.Flags = append(m.Flags, FlagSmallOuterArea)
		}
	}
	if m.HasFlag(FlagTouchesEdge) {
		conf -= edgeTouchPenalty
	}
	if m.HasFlag(FlagInnerMarginDerived) {
		conf -= derivedInnerPenalty
	}
	conf = math.Max(conf, confidenceFloor)
	if soft {
		conf = math.Min(conf, softWarningConfidence)
	}
	return conf
}

func shrink(b Box, fraction float64) Box {
	dx := int(math.Round(float64(b.W) * fraction))
	dy := int(math.Round(float64(b.H) * fraction))
	return Box{X: b.X + dx, Y: b.Y + dy, W: b.W - 2*dx, H: b.H - 2*dy}
}

func contains(outer, inner Box) bool {
	return inner.X >= outer.X && inner.Y >= outer.Y &&
		inner.Right() <= outer.Right() && inner.Bottom() <= outer.Bottom()
}

func boxFromNorm(minX, minY, maxX, maxY float64, imageW, imageH int) Box {
	x0 := int(math.Round(minX * float64(imageW)))
	y0 := int(math.Round(minY * float64(imageH)))
	x1 := int(math.Round(maxX * float64(imageW)))
	y1 := int(math.Round(maxY * float64(imageH)))
	return Box{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func ptr(v float64) *float64 { return &v }
