package quad

import (
	"math"
	"testing"

	"cardscan/internal/config"
)

func identity() Options {
	return IdentityOptions(config.Default().Geometry)
}

func TestValidateAcceptsCardShapedQuads(t *testing.T) {
	tests := []struct {
		name   string
		q      Quad
		w, h   int
		aspect AspectDecision
	}{
		{
			name:   "portrait card in portrait photo",
			q:      FromRect(0.1, 0.1, 0.8, 0.8, ProvenanceUser),
			w:      1000,
			h:      1400,
			aspect: AspectOK,
		},
		{
			name: "slightly skewed quad",
			q: New(ProvenanceAuto,
				Point{X: 0.12, Y: 0.08}, Point{X: 0.88, Y: 0.1},
				Point{X: 0.9, Y: 0.92}, Point{X: 0.1, Y: 0.9}),
			w:      1000,
			h:      1400,
			aspect: AspectOK,
		},
		{
			name:   "landscape mislabel",
			q:      FromRect(0.1, 0.1, 0.8, 0.8, ProvenanceUser),
			w:      1400,
			h:      1000,
			aspect: AspectFlippedOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Validate(tt.q, tt.w, tt.h, identity())
			if !out.Accepted {
				t.Fatalf("expected acceptance, got %+v", out)
			}
			if out.Reason != ReasonNone {
				t.Fatalf("expected no reason, got %q", out.Reason)
			}
			if out.AspectDecision != tt.aspect {
				t.Fatalf("aspect decision = %q, want %q", out.AspectDecision, tt.aspect)
			}
			if out.AspectNorm > 1 {
				t.Fatalf("aspect_norm should be folded to <= 1, got %v", out.AspectNorm)
			}
		})
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name string
		q    Quad
		want Reason
	}{
		{"three points", Quad{Points: []Point{{0, 0}, {1, 0}, {1, 1}}}, ReasonInvalidPointCount},
		{"five points", Quad{Points: []Point{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0.5, 0.5}}}, ReasonInvalidPointCount},
		{"nan", New(ProvenanceUser, Point{math.NaN(), 0}, Point{1, 0}, Point{1, 1}, Point{0, 1}), ReasonNonFinitePoint},
		{"inf", New(ProvenanceUser, Point{0, 0}, Point{math.Inf(1), 0}, Point{1, 1}, Point{0, 1}), ReasonNonFinitePoint},
		{"out of bounds", New(ProvenanceUser, Point{-0.1, 0}, Point{1, 0}, Point{1, 1}, Point{0, 1}), ReasonOutOfBounds},
		{"bowtie", New(ProvenanceUser, Point{0.1, 0.1}, Point{0.9, 0.9}, Point{0.9, 0.1}, Point{0.1, 0.9}), ReasonSelfIntersect},
		{"tiny", FromRect(0.4, 0.4, 0.1, 0.14, ProvenanceUser), ReasonAreaTooSmall},
		{"sliver", FromRect(0.0, 0.0, 1.0, 0.3, ProvenanceUser), ReasonAspectOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Validate(tt.q, 1000, 1000, identity())
			if out.Accepted {
				t.Fatalf("expected rejection %q, got acceptance %+v", tt.want, out)
			}
			if out.Reason != tt.want {
				t.Fatalf("reason = %q, want %q", out.Reason, tt.want)
			}
		})
	}
}

func TestValidateSoftAspectForBBoxSeed(t *testing.T) {
	q := FromRect(0.0, 0.0, 1.0, 0.3, ProvenanceBBoxSeed)
	out := Validate(q, 1000, 1000, identity())
	if !out.Accepted {
		t.Fatalf("expected soft acceptance, got %+v", out)
	}
	if out.AspectDecision != AspectSoftOK {
		t.Fatalf("aspect decision = %q, want soft_ok", out.AspectDecision)
	}
	if len(out.Warnings) != 1 || out.Warnings[0] != WarningSoftAspect {
		t.Fatalf("expected soft aspect warning, got %v", out.Warnings)
	}

	q.Provenance = ProvenanceAuto
	if got := Validate(q, 1000, 1000, identity()); got.Reason != ReasonAspectOutOfRange {
		t.Fatalf("detected quad with the same shape: reason = %q, want aspect_out_of_range", got.Reason)
	}
}

func TestValidatePixelSpace(t *testing.T) {
	q := FromRect(100, 100, 800, 1120, ProvenanceUser)
	q.Space = SpacePixel
	opts := identity()

	out := Validate(q, 1000, 1400, opts)
	if !out.Accepted {
		t.Fatalf("expected pixel quad acceptance, got %+v", out)
	}
	if math.Abs(out.AreaNorm-0.64) > 1e-9 {
		t.Fatalf("area_norm = %v, want 0.64", out.AreaNorm)
	}
	if math.Abs(out.AspectRaw-800.0/1120.0) > 1e-9 {
		t.Fatalf("aspect_raw = %v", out.AspectRaw)
	}

	outside := FromRect(100, 100, 1000, 1000, ProvenanceUser)
	outside.Space = SpacePixel
	if got := Validate(outside, 1000, 1400, opts); got.Reason != ReasonOutOfBounds {
		t.Fatalf("expected out_of_bounds for pixel overflow, got %q", got.Reason)
	}
	if got := Validate(q, 0, 0, opts); got.Reason != ReasonOutOfBounds {
		t.Fatalf("expected out_of_bounds without image size, got %q", got.Reason)
	}
}

func TestPolygonOptionsUseLowerBarWithoutAspect(t *testing.T) {
	q := FromRect(0.4, 0.4, 0.2, 0.02, ProvenanceAuto)
	out := ValidatePolygon(q, 1000, 1000, config.Default().Geometry)
	if !out.Accepted {
		t.Fatalf("expected polygon acceptance, got %+v", out)
	}
	if out.AspectDecision != AspectSkipped {
		t.Fatalf("expected aspect gate skipped, got %q", out.AspectDecision)
	}

	if got := Validate(q, 1000, 1000, identity()); got.Reason != ReasonAreaTooSmall {
		t.Fatalf("identity bar should reject the same polygon, got %q", got.Reason)
	}

	tiny := FromRect(0.5, 0.5, 0.01, 0.01, ProvenanceAuto)
	if got := ValidatePolygon(tiny, 1000, 1000, config.Default().Geometry); got.Reason != ReasonAreaTooSmall {
		t.Fatalf("expected area_too_small below the polygon bar, got %q", got.Reason)
	}
}

func TestValidateRawShape(t *testing.T) {
	raw := Raw{Points: [][]float64{{0.1, 0.1}, {0.9, 0.1}, {0.9}, {0.1, 0.9}}, Provenance: ProvenanceAuto}
	if _, got := ValidateRaw(raw, 100, 140, identity()); got.Reason != ReasonInvalidPointShape {
		t.Fatalf("reason = %q, want invalid_point_shape", got.Reason)
	}
	raw.Points[2] = []float64{0.9, 0.9}
	q, got := ValidateRaw(raw, 100, 140, identity())
	if !got.Accepted {
		t.Fatalf("expected acceptance, got %+v", got)
	}
	if len(q.Points) != 4 || q.Provenance != ProvenanceAuto {
		t.Fatalf("typed quad = %+v", q)
	}
	raw.Points = raw.Points[:2]
	if _, got := ValidateRaw(raw, 100, 140, identity()); got.Reason != ReasonInvalidPointCount {
		t.Fatalf("reason = %q, want invalid_point_count", got.Reason)
	}
}

func TestValidateRawPixelSpace(t *testing.T) {
	raw := Raw{
		Points: [][]float64{{60, 84}, {540, 84}, {540, 756}, {60, 756}},
		Space:  SpacePixel,
	}
	q, out := ValidateRaw(raw, 600, 840, identity())
	if !out.Accepted {
		t.Fatalf("expected pixel quad acceptance, got %+v", out)
	}
	norm := q.Normalized(600, 840)
	if norm.Space != "" {
		t.Fatalf("normalized space = %q, want zero value", norm.Space)
	}
	want := Point{X: 0.9, Y: 0.9}
	if got := norm.Points[2]; math.Abs(got.X-want.X) > 1e-9 || math.Abs(got.Y-want.Y) > 1e-9 {
		t.Fatalf("normalized corner = %+v, want %+v", got, want)
	}

	// The same numbers read as normalized coordinates are far out of bounds.
	raw.Space = SpaceNormalized
	if _, out := ValidateRaw(raw, 600, 840, identity()); out.Reason != ReasonOutOfBounds {
		t.Fatalf("reason = %q, want out_of_bounds", out.Reason)
	}
}

func TestParseRaw(t *testing.T) {
	raw, err := ParseRaw("0.1,0.1, 0.9,0.1,0.9,0.9,0.1,0.9", SpaceNormalized, ProvenanceUser)
	if err != nil {
		t.Fatalf("ParseRaw: %v", err)
	}
	q, out := ValidateRaw(raw, 100, 140, identity())
	if !out.Accepted || q.Points[2] != (Point{X: 0.9, Y: 0.9}) {
		t.Fatalf("unexpected quad %+v (%+v)", q, out)
	}
	again, err := ParseRaw(q.String(), SpaceNormalized, ProvenanceUser)
	if err != nil {
		t.Fatalf("ParseRaw(String()): %v", err)
	}
	if reparsed, _ := ValidateRaw(again, 100, 140, identity()); reparsed.String() != q.String() {
		t.Fatalf("round trip mismatch: %q vs %q", reparsed.String(), q.String())
	}

	jsonRaw, err := ParseRaw("[[12,30],[590,28],[596],[8,826]]", SpacePixel, ProvenanceUser)
	if err != nil {
		t.Fatalf("ParseRaw json: %v", err)
	}
	if jsonRaw.Space != SpacePixel || len(jsonRaw.Points) != 4 || len(jsonRaw.Points[2]) != 1 {
		t.Fatalf("json raw = %+v", jsonRaw)
	}

	for _, bad := range []string{"0.1,0.2,0.3", "a,b", "[[1,2],"} {
		if _, err := ParseRaw(bad, SpaceNormalized, ProvenanceUser); err == nil {
			t.Fatalf("expected %q to fail", bad)
		}
	}
}

func TestParseSpace(t *testing.T) {
	tests := []struct {
		in      string
		want    Space
		wantErr bool
	}{
		{"", SpaceNormalized, false},
		{"Normalized", SpaceNormalized, false},
		{"px", SpacePixel, false},
		{"pixel", SpacePixel, false},
		{"inches", "", true},
	}
	for _, tt := range tests {
		got, err := ParseSpace(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Fatalf("ParseSpace(%q) = %q, %v", tt.in, got, err)
		}
	}
}
