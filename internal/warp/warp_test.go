package warp

import (
	"errors"
	"image"
	"math"
	"testing"

	"cardscan/internal/config"
	"cardscan/internal/quad"
	"cardscan/internal/testsupport"
)

func skewedQuad() quad.Quad {
	return quad.New(quad.ProvenanceAuto,
		quad.Point{X: 0.12, Y: 0.11},
		quad.Point{X: 0.88, Y: 0.10},
		quad.Point{X: 0.89, Y: 0.90},
		quad.Point{X: 0.11, Y: 0.89},
	)
}

func TestSolveHomographyMapsCorners(t *testing.T) {
	src := [4]quad.Point{{X: 72, Y: 92}, {X: 528, Y: 84}, {X: 534, Y: 756}, {X: 66, Y: 748}}
	h, err := solveHomography(500, 700, src)
	if err != nil {
		t.Fatalf("solveHomography: %v", err)
	}
	dst := [4]quad.Point{{X: 0, Y: 0}, {X: 500, Y: 0}, {X: 500, Y: 700}, {X: 0, Y: 700}}
	for i, d := range dst {
		x, y := h.apply(d.X, d.Y)
		if math.Abs(x-src[i].X) > 1e-6 || math.Abs(y-src[i].Y) > 1e-6 {
			t.Fatalf("corner %d maps to (%v,%v), want %+v", i, x, y, src[i])
		}
	}
}

func TestOrderCornersAcceptsAnyWinding(t *testing.T) {
	in := [4]quad.Point{{X: 10, Y: 90}, {X: 90, Y: 90}, {X: 90, Y: 10}, {X: 10, Y: 10}}
	got := orderCorners(in)
	want := [4]quad.Point{{X: 10, Y: 10}, {X: 90, Y: 10}, {X: 90, Y: 90}, {X: 10, Y: 90}}
	if got != want {
		t.Fatalf("orderCorners = %v, want %v", got, want)
	}
}

func TestOrderCornersRotatedQuad(t *testing.T) {
	tests := []struct {
		name string
		in   [4]quad.Point
		want [4]quad.Point
	}{
		{
			name: "diamond",
			in:   [4]quad.Point{{X: 10, Y: 50}, {X: 50, Y: 90}, {X: 90, Y: 50}, {X: 50, Y: 10}},
			want: [4]quad.Point{{X: 50, Y: 10}, {X: 90, Y: 50}, {X: 50, Y: 90}, {X: 10, Y: 50}},
		},
		{
			name: "just past 45 degrees",
			in:   [4]quad.Point{{X: 51, Y: 10}, {X: 90, Y: 51}, {X: 49, Y: 90}, {X: 10, Y: 49}},
			want: [4]quad.Point{{X: 10, Y: 49}, {X: 51, Y: 10}, {X: 90, Y: 51}, {X: 49, Y: 90}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := orderCorners(tt.in)
			if got != tt.want {
				t.Fatalf("orderCorners = %v, want %v", got, tt.want)
			}
			if area := quad.Area(got[:]); area <= 0 {
				t.Fatalf("ordered area = %v, want a non-degenerate quad", area)
			}
		})
	}
}

func TestPerspectiveDiamondQuad(t *testing.T) {
	img, _, _ := testsupport.CenteredCard(600, 840, 0.8, 0.1)
	diamond := quad.New(quad.ProvenanceAuto,
		quad.Point{X: 0.3, Y: 0.5},
		quad.Point{X: 0.5, Y: 300.0 / 840},
		quad.Point{X: 0.7, Y: 0.5},
		quad.Point{X: 0.5, Y: 540.0 / 840},
	)
	out, err := Perspective(img, diamond, 100, 100)
	if err != nil {
		t.Fatalf("Perspective: %v", err)
	}
	if c := out.RGBAAt(50, 50); c != testsupport.CardArt {
		t.Fatalf("center pixel = %v, want art color", c)
	}
}

func TestPerspectiveSkewedQuad(t *testing.T) {
	img, _, _ := testsupport.CenteredCard(600, 840, 0.8, 0.1)
	out, err := Perspective(img, skewedQuad(), 250, 350)
	if err != nil {
		t.Fatalf("Perspective: %v", err)
	}
	if out.Bounds() != image.Rect(0, 0, 250, 350) {
		t.Fatalf("unexpected bounds %v", out.Bounds())
	}
	if c := out.RGBAAt(125, 175); c != testsupport.CardArt {
		t.Fatalf("center pixel = %v, want art color", c)
	}
	if c := out.RGBAAt(2, 2); c != testsupport.CardBorder {
		t.Fatalf("corner pixel = %v, want border color", c)
	}
}

func TestWarperAxisAlignedQuad(t *testing.T) {
	img, _, _ := testsupport.CenteredCard(600, 840, 0.8, 0.1)
	w := New(config.Warp{Width: 100, Height: 140})
	out, err := w.Warp(img, quad.FromRect(0.1, 0.1, 0.8, 0.8, quad.ProvenanceAuto))
	if err != nil {
		t.Fatalf("Warp: %v", err)
	}
	if ww, hh := w.Size(); out.Bounds().Dx() != ww || out.Bounds().Dy() != hh {
		t.Fatalf("output %v does not match warper size", out.Bounds())
	}
	if c := out.RGBAAt(50, 70); c != testsupport.CardArt {
		t.Fatalf("center pixel = %v, want art color", c)
	}
}

func TestPerspectiveFailures(t *testing.T) {
	img := testsupport.Pattern(64, 64, 3)
	collinear := quad.New(quad.ProvenanceAuto,
		quad.Point{X: 0.1, Y: 0.1}, quad.Point{X: 0.2, Y: 0.2},
		quad.Point{X: 0.3, Y: 0.3}, quad.Point{X: 0.4, Y: 0.4})

	tests := []struct {
		name string
		img  image.Image
		q    quad.Quad
		w, h int
	}{
		{"nil image", nil, skewedQuad(), 10, 10},
		{"bad size", img, skewedQuad(), 0, 10},
		{"three points", img, quad.Quad{Points: []quad.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}}}, 10, 10},
		{"collinear", img, collinear, 10, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Perspective(tt.img, tt.q, tt.w, tt.h); !errors.Is(err, ErrWarpFailed) {
				t.Fatalf("expected ErrWarpFailed, got %v", err)
			}
		})
	}
}
