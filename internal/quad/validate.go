package quad

import (
	"math"

	"cardscan/internal/config"
)

// Reason is the rejection token reported for a quad that fails validation.
type Reason string

const (
	ReasonNone              Reason = ""
	ReasonInvalidPointCount Reason = "invalid_point_count"
	ReasonInvalidPointShape Reason = "invalid_point_shape"
	ReasonNonFinitePoint    Reason = "non_finite_point"
	ReasonOutOfBounds       Reason = "out_of_bounds"
	ReasonSelfIntersect     Reason = "self_intersect"
	ReasonAreaTooSmall      Reason = "area_too_small"
	ReasonAspectOutOfRange  Reason = "aspect_out_of_range"
)

// AspectDecision records how the bounding-box aspect gate was passed (or not).
type AspectDecision string

const (
	AspectOK        AspectDecision = "ok"
	AspectFlippedOK AspectDecision = "flipped_ok"
	AspectSoftOK    AspectDecision = "soft_ok"
	AspectHardFail  AspectDecision = "hard_fail"
	// AspectSkipped is reported when the call site disables the aspect gate.
	AspectSkipped AspectDecision = "skipped"
)

// WarningSoftAspect flags a quad accepted only because it was seeded from a
// bounding-box center crop.
const WarningSoftAspect = "aspect_soft_bbox_seed"

// Options carries call-site thresholds. The validator has no defaults of its
// own; use IdentityOptions or PolygonOptions to build them from config.
type Options struct {
	MinArea     float64
	CheckAspect bool
	AspectMin   float64
	AspectMax   float64
}

// IdentityOptions returns the thresholds used for centering and fingerprint quads.
func IdentityOptions(g config.Geometry) Options {
	return Options{
		MinArea:     g.IdentityMinArea,
		CheckAspect: true,
		AspectMin:   g.AspectMin,
		AspectMax:   g.AspectMax,
	}
}

// PolygonOptions returns the lower bar used for detector confidence polygons.
func PolygonOptions(g config.Geometry) Options {
	return Options{MinArea: g.PolygonMinArea}
}

// Outcome is the result of validating a quad. It is computed fresh on every
// call and never persisted here.
type Outcome struct {
	Accepted       bool           `json:"accepted"`
	Reason         Reason         `json:"rejection_reason,omitempty"`
	AreaNorm       float64        `json:"area_norm"`
	AspectRaw      float64        `json:"aspect_raw"`
	AspectNorm     float64        `json:"aspect_norm"`
	AspectDecision AspectDecision `json:"aspect_decision,omitempty"`
	Warnings       []string       `json:"warnings,omitempty"`
}

func reject(reason Reason) Outcome {
	return Outcome{Reason: reason}
}

// Validate checks q against the image dimensions and options. Checks run in
// order and stop at the first failure: point count and bounds, self
// intersection, enclosed area, bounding-box aspect. Pixel-space quads are
// bounded by the image size. A bbox_seed provenance turns an aspect failure
// into a soft acceptance. Malformed input is an expected outcome and never
// panics.
func Validate(q Quad, imageW, imageH int, opts Options) Outcome {
	if len(q.Points) != 4 {
		return reject(ReasonInvalidPointCount)
	}
	for _, p := range q.Points {
		if !isFinite(p.X) || !isFinite(p.Y) {
			return reject(ReasonNonFinitePoint)
		}
	}

	norm, ok := normalize(q.Points, imageW, imageH, q.Space)
	if !ok {
		return reject(ReasonOutOfBounds)
	}
	for _, p := range norm {
		if p.X < 0 || p.X > 1 || p.Y < 0 || p.Y > 1 {
			return reject(ReasonOutOfBounds)
		}
	}

	if selfIntersects(norm) {
		return reject(ReasonSelfIntersect)
	}

	area := shoelace(norm)
	out := Outcome{AreaNorm: area}
	if area <= opts.MinArea {
		out.Reason = ReasonAreaTooSmall
		return out
	}

	out.AspectRaw = boundsAspect(norm, imageW, imageH)
	out.AspectNorm = foldAspect(out.AspectRaw)
	if !opts.CheckAspect {
		out.AspectDecision = AspectSkipped
		out.Accepted = true
		return out
	}

	out.AspectDecision = classifyAspect(out.AspectRaw, opts, q.Provenance == ProvenanceBBoxSeed)
	switch out.AspectDecision {
	case AspectHardFail:
		out.Reason = ReasonAspectOutOfRange
		return out
	case AspectSoftOK:
		out.Warnings = append(out.Warnings, WarningSoftAspect)
	}
	out.Accepted = true
	return out
}

// ValidateRaw validates coordinates that arrive as untyped arrays, such as a
// detector's JSON payload or a command-line flag. Each point must have
// exactly two components. The typed quad is returned whenever the shape
// checks pass, accepted or not.
func ValidateRaw(raw Raw, imageW, imageH int, opts Options) (Quad, Outcome) {
	if len(raw.Points) != 4 {
		return Quad{}, reject(ReasonInvalidPointCount)
	}
	q := Quad{Points: make([]Point, 0, 4), Space: raw.Space, Provenance: raw.Provenance}
	for _, c := range raw.Points {
		if len(c) != 2 {
			return Quad{}, reject(ReasonInvalidPointShape)
		}
		q.Points = append(q.Points, Point{X: c[0], Y: c[1]})
	}
	return q, Validate(q, imageW, imageH, opts)
}

// ValidatePolygon validates a detector confidence polygon: the same checks
// with the lower polygon area bar and no aspect gate.
func ValidatePolygon(q Quad, imageW, imageH int, g config.Geometry) Outcome {
	return Validate(q, imageW, imageH, PolygonOptions(g))
}

func classifyAspect(raw float64, opts Options, seeded bool) AspectDecision {
	if inRange(raw, opts.AspectMin, opts.AspectMax) {
		return AspectOK
	}
	if raw > 0 && inRange(1/raw, opts.AspectMin, opts.AspectMax) {
		return AspectFlippedOK
	}
	if seeded {
		return AspectSoftOK
	}
	return AspectHardFail
}

func normalize(points []Point, imageW, imageH int, space Space) ([]Point, bool) {
	out := make([]Point, len(points))
	if space != SpacePixel {
		copy(out, points)
		return out, true
	}
	if imageW <= 0 || imageH <= 0 {
		return nil, false
	}
	for i, p := range points {
		out[i] = Point{X: p.X / float64(imageW), Y: p.Y / float64(imageH)}
	}
	return out, true
}

// boundsAspect is width/height of the bounding box measured in pixels when
// the image size is known, so a portrait card in a landscape photo reads as
// portrait.
func boundsAspect(norm []Point, imageW, imageH int) float64 {
	minX, minY, maxX, maxY := Quad{Points: norm}.Bounds()
	w, h := maxX-minX, maxY-minY
	if imageW > 0 && imageH > 0 {
		w *= float64(imageW)
		h *= float64(imageH)
	}
	if h <= 0 {
		return 0
	}
	return w / h
}

func foldAspect(raw float64) float64 {
	if raw > 1 {
		return 1 / raw
	}
	return raw
}

// Area returns the absolute shoelace area of the points.
func Area(points []Point) float64 {
	return shoelace(points)
}

func shoelace(points []Point) float64 {
	var sum float64
	for i := range points {
		a := points[i]
		b := points[(i+1)%len(points)]
		sum += a.X*b.Y - b.X*a.Y
	}
	return math.Abs(sum) / 2
}

// selfIntersects tests the two pairs of non-adjacent edges of a quadrilateral.
func selfIntersects(p []Point) bool {
	return segmentsCross(p[0], p[1], p[2], p[3]) || segmentsCross(p[1], p[2], p[3], p[0])
}

func segmentsCross(a1, a2, b1, b2 Point) bool {
	d1 := orientation(a1, a2, b1)
	d2 := orientation(a1, a2, b2)
	d3 := orientation(b1, b2, a1)
	d4 := orientation(b1, b2, a2)
	return d1*d2 < 0 && d3*d4 < 0
}

func orientation(a, b, c Point) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

func inRange(v, lo, hi float64) bool {
	return v >= lo && v <= hi
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
