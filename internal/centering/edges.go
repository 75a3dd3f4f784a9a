package centering

import (
	"image"
	"math"

	xdraw "golang.org/x/image/draw"
)

// field is a row-major luminance plane with values in [0,1].
type field struct {
	w, h int
	v []float64
}

func (f field) at(x, y int) float64 { return f.v[y*f.w+x] }

// luminanceField converts img to luminance and downsizes it so the longest
// side is at most maxSide. It returns the field and the working/original
// scale factor (<= 1).
func luminanceField(img image.Image, maxSide int) (field, float64) {
	b := img.Bounds()
	srcW, srcH := b.Dx(), b.Dy()
	scale := 1.0
	if longest := max(srcW, srcH); maxSide > 0 && longest > maxSide {
		scale = float64(maxSide) / float64(longest)
	}
	w := max(1, int(math.Round(float64(srcW)*scale)))
	h := max(1, int(math.Round(float64(srcH)*scale)))

	gray := image.NewGray(image.Rect(0, 0, w, h))
	if w == srcW && h == srcH {
		xdraw.Draw(gray, gray.Bounds(), img, b.Min, xdraw.Src)
	} else {
		xdraw.BiLinear.Scale(gray, gray.Bounds(), img, b, xdraw.Src, nil)
	}

	f := field{w: w, h: h, v: make([]float64, w*h)}
	for y := 0; y < h; y++ {
		row := gray.Pix[y*gray.Stride : y*gray.Stride+w]
		for x, p := range row {
			f.v[y*w+x] = float64(p) / 255
		}
	}
	return f, scale
}

// edgeParams controls one threshold-and-reduce pass.
type edgeParams struct {
	k           float64 // threshold = mean + k*stddev
	minFraction float64 // minimum hit fraction for a row or column to count
	// noiseFloor is an absolute lower bound on the threshold. A pixel must
	// beat it strictly, so zero keeps flat regions out of the mask even when
	// mean + k*stddev is negative.
	noiseFloor float64
	minBox     int
}

// detectBox runs the gradient threshold-and-reduce technique over region r
// of f and returns the box spanned by the first and last qualifying rows and
// columns, in working coordinates.
func detectBox(f field, r image.Rectangle, p edgeParams) (Box, bool) {
	r = r.Intersect(image.Rect(0, 0, f.w, f.h))
	gw, gh := r.Dx()-1, r.Dy()-1
	if gw < 1 || gh < 1 {
		return Box{}, false
	}

	// Finite difference against right and below neighbours, L1 combined.
	grad := make([]float64, gw*gh)
	var sum, sumSq float64
	for y := 0; y < gh; y++ {
		for x := 0; x < gw; x++ {
			px, py := r.Min.X+x, r.Min.Y+y
			c := f.at(px, py)
			g := math.Abs(f.at(px+1, py)-c) + math.Abs(f.at(px, py+1)-c)
			grad[y*gw+x] = g
			sum += g
			sumSq += g * g
		}
	}
	n := float64(len(grad))
	mean := sum / n
	variance := math.Max(0, sumSq/n-mean*mean)
	threshold := math.Max(mean+p.k*math.Sqrt(variance), p.noiseFloor)

	rowHits := make([]int, gh)
	colHits := make([]int, gw)
	for y := 0; y < gh; y++ {
		for x := 0; x < gw; x++ {
			if grad[y*gw+x] > threshold {
				rowHits[y]++
				colHits[x]++
			}
		}
	}

	top, bottom, okRows := span(rowHits, p.minFraction*float64(gw))
	left, right, okCols := span(colHits, p.minFraction*float64(gh))
	if !okRows || !okCols {
		return Box{}, false
	}
	box := Box{
		X: r.Min.X + left,
		Y: r.Min.Y + top,
		W: right - left + 1,
		H: bottom - top + 1,
	}
	if box.W < p.minBox || box.H < p.minBox {
		return Box{}, false
	}
	return box, true
}

// span returns the first and last index whose count exceeds minCount.
func span(counts []int, minCount float64) (int, int, bool) {
	first, last := -1, -1
	for i, c := range counts {
		if float64(c) > minCount {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	return first, last, first >= 0
}

func (b Box) rect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.W, b.Y+b.H)
}

// scaleBox converts between working and original coordinates.
func scaleBox(b Box, factor float64) Box {
	if factor == 1 {
		return b
	}
	x0 := int(math.Round(float64(b.X) * factor))
	y0 := int(math.Round(float64(b.Y) * factor))
	x1 := int(math.Round(float64(b.X+b.W) * factor))
	y1 := int(math.Round(float64(b.Y+b.H) * factor))
	return Box{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}
