package warp

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"cardscan/internal/quad"
)

// homography maps output pixel coordinates to source pixel coordinates.
type homography [8]float64

func (h homography) apply(x, y float64) (float64, float64) {
	w := h[6]*x + h[7]*y + 1
	return (h[0]*x + h[1]*y + h[2]) / w, (h[3]*x + h[4]*y + h[5]) / w
}

// solveHomography finds the projective map taking the output rectangle's
// corners onto src (clockwise from top-left).
func solveHomography(width, height int, src [4]quad.Point) (homography, error) {
	w, h := float64(width), float64(height)
	dst := [4]quad.Point{{X: 0, Y: 0}, {X: w, Y: 0}, {X: w, Y: h}, {X: 0, Y: h}}

	var a [8][9]float64
	for i := range 4 {
		x, y := dst[i].X, dst[i].Y
		u, v := src[i].X, src[i].Y
		a[2*i] = [9]float64{x, y, 1, 0, 0, 0, -x * u, -y * u, u}
		a[2*i+1] = [9]float64{0, 0, 0, x, y, 1, -x * v, -y * v, v}
	}

	// Gaussian elimination with partial pivoting.
	for col := range 8 {
		pivot := col
		for row := col + 1; row < 8; row++ {
			if math.Abs(a[row][col]) > math.Abs(a[pivot][col]) {
				pivot = row
			}
		}
		if math.Abs(a[pivot][col]) < 1e-12 {
			return homography{}, fmt.Errorf("%w: degenerate quad", ErrWarpFailed)
		}
		a[col], a[pivot] = a[pivot], a[col]
		for row := range 8 {
			if row == col {
				continue
			}
			f := a[row][col] / a[col][col]
			for k := col; k < 9; k++ {
				a[row][k] -= f * a[col][k]
			}
		}
	}

	var out homography
	for i := range 8 {
		out[i] = a[i][8] / a[i][i]
		if math.IsNaN(out[i]) || math.IsInf(out[i], 0) {
			return homography{}, fmt.Errorf("%w: degenerate quad", ErrWarpFailed)
		}
	}
	return out, nil
}

// sampleBilinear reads src at a fractional pixel position, clamping to the
// image bounds.
func sampleBilinear(src *image.RGBA, x, y float64) color.RGBA {
	b := src.Bounds()
	x = clamp(x, float64(b.Min.X), float64(b.Max.X-1))
	y = clamp(y, float64(b.Min.Y), float64(b.Max.Y-1))
	x0, y0 := int(math.Floor(x)), int(math.Floor(y))
	x1, y1 := min(x0+1, b.Max.X-1), min(y0+1, b.Max.Y-1)
	fx, fy := x-float64(x0), y-float64(y0)

	c00 := src.RGBAAt(x0, y0)
	c10 := src.RGBAAt(x1, y0)
	c01 := src.RGBAAt(x0, y1)
	c11 := src.RGBAAt(x1, y1)
	lerp := func(a, b, c, d uint8) uint8 {
		top := float64(a)*(1-fx) + float64(b)*fx
		bottom := float64(c)*(1-fx) + float64(d)*fx
		return uint8(math.Round(top*(1-fy) + bottom*fy))
	}
	return color.RGBA{
		R: lerp(c00.R, c10.R, c01.R, c11.R),
		G: lerp(c00.G, c10.G, c01.G, c11.G),
		B: lerp(c00.B, c10.B, c01.B, c11.B),
		A: lerp(c00.A, c10.A, c01.A, c11.A),
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
