package quad

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Point is a 2D coordinate, image-relative ([0,1]) or in pixels depending on
// the quad's Space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Provenance records who supplied a quad.
type Provenance string

const (
	ProvenanceAuto     Provenance = "auto"
	ProvenanceUser     Provenance = "user"
	ProvenanceOverride Provenance = "override"
	// ProvenanceBBoxSeed marks a quad built from a detector's bounding box
	// rather than traced corners. The aspect gate treats it softly.
	ProvenanceBBoxSeed Provenance = "bbox_seed"
)

// Space selects how point coordinates are interpreted. The zero value means
// normalized.
type Space string

const (
	SpaceNormalized Space = "normalized"
	SpacePixel      Space = "pixel"
)

// ParseSpace reads a space name as given on the command line.
func ParseSpace(value string) (Space, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "normalized", "norm":
		return SpaceNormalized, nil
	case "pixel", "px":
		return SpacePixel, nil
	default:
		return "", fmt.Errorf("unknown quad space %q (want normalized or pixel)", value)
	}
}

// Quad is an ordered 4-point boundary. Points is a slice rather than an
// array because malformed input (wrong point count) is a normal outcome
// that Validate reports.
type Quad struct {
	Points     []Point    `json:"points"`
	Space      Space      `json:"space,omitempty"`
	Provenance Provenance `json:"provenance"`
}

// Raw is a boundary as a caller or detector hands it over: coordinate
// arrays whose count and shape have not been checked.
type Raw struct {
	Points     [][]float64 `json:"points"`
	Space      Space       `json:"space,omitempty"`
	Provenance Provenance  `json:"provenance,omitempty"`
}

// New builds a quad from four points.
func New(provenance Provenance, a, b, c, d Point) Quad {
	return Quad{Points: []Point{a, b, c, d}, Provenance: provenance}
}

// FromRect returns the axis-aligned quad (clockwise from top-left) covering
// the given rectangle.
func FromRect(x, y, w, h float64, provenance Provenance) Quad {
	return New(provenance,
		Point{X: x, Y: y},
		Point{X: x + w, Y: y},
		Point{X: x + w, Y: y + h},
		Point{X: x, Y: y + h},
	)
}

// Bounds returns the axis-aligned bounding box of the quad's points.
func (q Quad) Bounds() (minX, minY, maxX, maxY float64) {
	if len(q.Points) == 0 {
		return 0, 0, 0, 0
	}
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, p := range q.Points {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return minX, minY, maxX, maxY
}

// Scale multiplies every coordinate. The space is left unchanged.
func (q Quad) Scale(sx, sy float64) Quad {
	out := Quad{Points: make([]Point, len(q.Points)), Space: q.Space, Provenance: q.Provenance}
	for i, p := range q.Points {
		out.Points[i] = Point{X: p.X * sx, Y: p.Y * sy}
	}
	return out
}

// Normalized returns q in image-relative coordinates. Pixel quads need the
// image size; without it q is returned unchanged.
func (q Quad) Normalized(imageW, imageH int) Quad {
	if q.Space != SpacePixel {
		out := q.Scale(1, 1)
		out.Space = ""
		return out
	}
	if imageW <= 0 || imageH <= 0 {
		return q
	}
	out := q.Scale(1/float64(imageW), 1/float64(imageH))
	out.Space = ""
	return out
}

// Raw returns q in untyped form.
func (q Quad) Raw() *Raw {
	r := &Raw{Points: make([][]float64, len(q.Points)), Space: q.Space, Provenance: q.Provenance}
	for i, p := range q.Points {
		r.Points[i] = []float64{p.X, p.Y}
	}
	return r
}

// String renders the quad as comma separated coordinates (x1,y1,...,x4,y4).
func (q Quad) String() string {
	parts := make([]string, 0, len(q.Points)*2)
	for _, p := range q.Points {
		parts = append(parts,
			strconv.FormatFloat(p.X, 'f', -1, 64),
			strconv.FormatFloat(p.Y, 'f', -1, 64))
	}
	return strings.Join(parts, ",")
}

// ParseRaw reads a boundary as either a JSON array of points
// ([[x1,y1],[x2,y2],...]) or flat comma separated pairs (x1,y1,...,x4,y4).
// Only the syntax is checked here; point count, shape and geometry are the
// validator's job.
func ParseRaw(value string, space Space, provenance Provenance) (Raw, error) {
	value = strings.TrimSpace(value)
	raw := Raw{Space: space, Provenance: provenance}
	if strings.HasPrefix(value, "[") {
		if err := json.Unmarshal([]byte(value), &raw.Points); err != nil {
			return Raw{}, fmt.Errorf("parse quad: %w", err)
		}
		return raw, nil
	}

	fields := strings.Split(value, ",")
	if len(fields)%2 != 0 {
		return Raw{}, fmt.Errorf("parse quad: expected coordinate pairs, got %d values", len(fields))
	}
	for i := 0; i < len(fields); i += 2 {
		x, err := strconv.ParseFloat(strings.TrimSpace(fields[i]), 64)
		if err != nil {
			return Raw{}, fmt.Errorf("parse quad x%d: %w", i/2+1, err)
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(fields[i+1]), 64)
		if err != nil {
			return Raw{}, fmt.Errorf("parse quad y%d: %w", i/2+1, err)
		}
		raw.Points = append(raw.Points, []float64{x, y})
	}
	return raw, nil
}
