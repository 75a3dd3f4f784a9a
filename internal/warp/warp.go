package warp

import (
	"cmp"
	"errors"
	"fmt"
	"image"
	"math"
	"slices"

	xdraw "golang.org/x/image/draw"

	"cardscan/internal/config"
	"cardscan/internal/quad"
)

// ErrWarpFailed is returned when a quad cannot be mapped onto the output.
var ErrWarpFailed = errors.New("warp_failed")

// Warper maps accepted quads onto a fixed output size so hashes are
// comparable across scans taken at different distances and angles.
type Warper struct {
	width  int
	height int
}

// New builds a Warper for the configured output size.
func New(cfg config.Warp) *Warper {
	return &Warper{width: cfg.Width, height: cfg.Height}
}

// Size returns the output dimensions.
func (w *Warper) Size() (int, int) {
	return w.width, w.height
}

// Warp maps the normalized quad q of img onto the configured output size.
func (w *Warper) Warp(img image.Image, q quad.Quad) (*image.RGBA, error) {
	return Perspective(img, q, w.width, w.height)
}

// Perspective maps the image-relative quad q onto a width x height raster.
// Corners are reordered clockwise from top-left first. Axis-aligned quads
// are resampled directly; anything else goes through a homography with
// bilinear sampling.
func Perspective(img image.Image, q quad.Quad, width, height int) (*image.RGBA, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty source image", ErrWarpFailed)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: invalid output size %dx%d", ErrWarpFailed, width, height)
	}
	if len(q.Points) != 4 {
		return nil, fmt.Errorf("%w: quad has %d points", ErrWarpFailed, len(q.Points))
	}

	b := img.Bounds()
	corners := orderCorners(toPixels(q.Points, b))
	if quad.Area(corners[:]) < 1 {
		return nil, fmt.Errorf("%w: degenerate quad", ErrWarpFailed)
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))

	if r, ok := axisAligned(corners); ok {
		if r.Empty() {
			return nil, fmt.Errorf("%w: quad collapses to %v", ErrWarpFailed, r)
		}
		xdraw.BiLinear.Scale(dst, dst.Bounds(), img, r, xdraw.Src, nil)
		return dst, nil
	}

	h, err := solveHomography(width, height, corners)
	if err != nil {
		return nil, err
	}
	src := toRGBA(img)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			sx, sy := h.apply(float64(x)+0.5, float64(y)+0.5)
			dst.SetRGBA(x, y, sampleBilinear(src, sx-0.5, sy-0.5))
		}
	}
	return dst, nil
}

func toPixels(points []quad.Point, b image.Rectangle) [4]quad.Point {
	var out [4]quad.Point
	for i, p := range points {
		out[i] = quad.Point{
			X: float64(b.Min.X) + p.X*float64(b.Dx()),
			Y: float64(b.Min.Y) + p.Y*float64(b.Dy()),
		}
	}
	return out
}

// orderCorners returns the corners clockwise from top-left. Points are
// sorted by angle around their centroid, so quads rotated near 45 degrees
// keep four distinct corners.
func orderCorners(p [4]quad.Point) [4]quad.Point {
	var cx, cy float64
	for _, c := range p {
		cx += c.X / 4
		cy += c.Y / 4
	}
	pts := p[:]
	slices.SortStableFunc(pts, func(a, b quad.Point) int {
		return cmp.Compare(math.Atan2(a.Y-cy, a.X-cx), math.Atan2(b.Y-cy, b.X-cx))
	})

	// Top-left is the smallest x+y; on a tie the higher point wins.
	start := 0
	for i := 1; i < len(pts); i++ {
		si, ss := pts[i].X+pts[i].Y, pts[start].X+pts[start].Y
		if si < ss-cornerTie || (math.Abs(si-ss) <= cornerTie && pts[i].Y < pts[start].Y) {
			start = i
		}
	}
	var out [4]quad.Point
	for i := range out {
		out[i] = pts[(start+i)%4]
	}
	return out
}

const cornerTie = 1e-6

const alignTolerance = 0.5

func axisAligned(c [4]quad.Point) (image.Rectangle, bool) {
	tl, tr, br, bl := c[0], c[1], c[2], c[3]
	if math.Abs(tl.Y-tr.Y) > alignTolerance || math.Abs(bl.Y-br.Y) > alignTolerance ||
		math.Abs(tl.X-bl.X) > alignTolerance || math.Abs(tr.X-br.X) > alignTolerance {
		return image.Rectangle{}, false
	}
	return image.Rect(
		int(math.Round(tl.X)), int(math.Round(tl.Y)),
		int(math.Round(br.X)), int(math.Round(br.Y)),
	), true
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	out := image.NewRGBA(b)
	xdraw.Draw(out, b, img, b.Min, xdraw.Src)
	return out
}
