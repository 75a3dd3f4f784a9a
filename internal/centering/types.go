package centering

import (
	"slices"

	"cardscan/internal/quad"
)

// Face identifies which side of the card a photograph shows.
type Face string

const (
	FaceFront Face = "front"
	FaceBack  Face = "back"
)

// Tier is the condition tag derived from centering.
type Tier string

const (
	TierPristine Tier = "pristine"
	TierGemMint  Tier = "gem_mint"
	TierBelowGem Tier = "below_gem"
)

// Rank orders tiers so that pristine > gem_mint > below_gem. Unknown tiers
// rank lowest.
func (t Tier) Rank() int {
	switch t {
	case TierPristine:
		return 2
	case TierGemMint:
		return 1
	default:
		return 0
	}
}

// Failure is the reason token for an analysis that could not produce a valid
// measurement.
type Failure string

const (
	FailureNone                 Failure = ""
	FailureInvalidImage         Failure = "invalid_image"
	FailureBorderNotDetected    Failure = "border_not_detected"
	FailureQuadTooSmall         Failure = "quad_too_small"
	FailureExcessivePerspective Failure = "excessive_perspective"
	FailureQuadOutOfFrame       Failure = "quad_out_of_frame"
)

// Quality flag tokens.
const (
	FlagInnerMarginDerived = "inner_margin_derived"
	FlagUserQuad           = "user_quad"
	FlagUserQuadRejected   = "user_quad_rejected"
	FlagTouchesEdge        = "touches_edge"
	FlagEdgeTouchSoft      = "edge_touch_soft"
	FlagSoftAspect         = "soft_aspect"
	FlagSmallImage         = "small_image"
	FlagSmallOuterArea     = "small_outer_area"
	FlagFullFrameOuter     = "full_frame_outer"
	FlagPerfectRatios      = "perfect_ratios"
	FlagInvalid            = "invalid"
	FlagUnknownFrame       = "unknown_frame"
)

// Box is an axis-aligned rectangle in pixel space.
type Box struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Right returns the exclusive right edge.
func (b Box) Right() int { return b.X + b.W }

// Bottom returns the exclusive bottom edge.
func (b Box) Bottom() int { return b.Y + b.H }

// Empty reports whether the box has no area.
func (b Box) Empty() bool { return b.W <= 0 || b.H <= 0 }

// Normalize projects the box into image-relative coordinates.
func (b Box) Normalize(imageW, imageH int) NormBox {
	if imageW <= 0 || imageH <= 0 {
		return NormBox{}
	}
	w, h := float64(imageW), float64(imageH)
	return NormBox{
		X: float64(b.X) / w,
		Y: float64(b.Y) / h,
		W: float64(b.W) / w,
		H: float64(b.H) / h,
	}
}

// Quad returns the box as an image-relative quad, clockwise from top-left.
func (b Box) Quad(imageW, imageH int, provenance quad.Provenance) quad.Quad {
	n := b.Normalize(imageW, imageH)
	return quad.FromRect(n.X, n.Y, n.W, n.H, provenance)
}

// NormBox is a Box projected into [0,1] image-relative coordinates.
type NormBox struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Quality is the structural gate's view of a measurement. It is computed
// independently of the detection confidence.
type Quality struct {
	Confidence float64  `json:"confidence"`
	Degenerate bool     `json:"degenerate"`
	Flags      []string `json:"flags,omitempty"`
}

// Measurement is the full centering analysis of one face. It is recomputed
// from the outer and inner boxes on every analysis.
type Measurement struct {
	Face        Face    `json:"face"`
	ImageWidth  int     `json:"image_width"`
	ImageHeight int     `json:"image_height"`
	Outer       Box     `json:"outer"`
	Inner       Box     `json:"inner"`
	OuterNorm   NormBox `json:"outer_norm"`
	InnerNorm   NormBox `json:"inner_norm"`

	Left   int `json:"left"`
	Right  int `json:"right"`
	Top    int `json:"top"`
	Bottom int `json:"bottom"`

	LRRatio   *float64 `json:"lr_ratio"`
	TBRatio   *float64 `json:"tb_ratio"`
	WorstLR   *float64 `json:"worst_lr"`
	WorstTB   *float64 `json:"worst_tb"`
	FaceWorst *float64 `json:"face_worst"`

	// DetectionConfidence is the penalty-based confidence from boundary
	// detection. Confidence is the value after the quality gate.
	DetectionConfidence float64  `json:"detection_confidence"`
	Confidence          float64  `json:"confidence"`
	Quality             Quality  `json:"quality"`
	Flags               []string `json:"flags,omitempty"`
	Invalid             bool     `json:"invalid"`
	TagTier             Tier     `json:"tag_tier"`
	Subgrade            float64  `json:"subgrade"`
}

// HasFlag reports whether flag was raised during detection.
func (m *Measurement) HasFlag(flag string) bool {
	return m != nil && slices.Contains(m.Flags, flag)
}

// Result is the tagged outcome of analyzing one face. A failed analysis may
// still carry a Measurement (marked Invalid) when the outer box was located
// but rejected as degenerate.
type Result struct {
	Measurement *Measurement  `json:"measurement,omitempty"`
	Failure     Failure       `json:"failure,omitempty"`
	QuadOutcome *quad.Outcome `json:"quad_outcome,omitempty"`
	// AcceptedQuad is the caller's quad in normalized coordinates when the
	// validator accepted it.
	AcceptedQuad *quad.Quad `json:"accepted_quad,omitempty"`
}

// OK reports whether the analysis produced a valid measurement.
func (r Result) OK() bool {
	return r.Failure == FailureNone && r.Measurement != nil && !r.Measurement.Invalid
}
