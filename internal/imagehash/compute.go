package imagehash

import (
	"fmt"
	"image"
	"math"
	"slices"

	xdraw "golang.org/x/image/draw"
)

const (
	dhashWidth  = 9
	dhashHeight = 8
	phashSize   = 32
	phashLow    = 8
)

// Compute returns both hashes for img.
func Compute(img image.Image) (Pair, error) {
	p, err := PHash(img)
	if err != nil {
		return Pair{}, err
	}
	d, err := DHash(img)
	if err != nil {
		return Pair{}, err
	}
	return Pair{PHash: p, DHash: d}, nil
}

// DHash is the difference hash: the image is reduced to 9x8 grayscale and
// each bit records whether a pixel is darker than its right neighbour.
// Bits are packed row-major, most significant first.
func DHash(img image.Image) (Hash, error) {
	gray, err := reduce(img, dhashWidth, dhashHeight)
	if err != nil {
		return 0, err
	}
	var h uint64
	for y := 0; y < dhashHeight; y++ {
		row := gray.Pix[y*gray.Stride:]
		for x := 0; x < dhashWidth-1; x++ {
			h <<= 1
			if row[x] < row[x+1] {
				h |= 1
			}
		}
	}
	return Hash(h), nil
}

// PHash is the DCT hash: the image is reduced to 32x32 grayscale, a 2D
// DCT-II is taken, and each bit of the top-left 8x8 block (DC included)
// records whether the coefficient exceeds the block median.
func PHash(img image.Image) (Hash, error) {
	gray, err := reduce(img, phashSize, phashSize)
	if err != nil {
		return 0, err
	}
	pixels := make([]float64, phashSize*phashSize)
	for y := 0; y < phashSize; y++ {
		for x := 0; x < phashSize; x++ {
			pixels[y*phashSize+x] = float64(gray.Pix[y*gray.Stride+x])
		}
	}

	coeffs := dctLowFrequencies(pixels)
	sorted := slices.Clone(coeffs)
	slices.Sort(sorted)
	median := (sorted[len(sorted)/2-1] + sorted[len(sorted)/2]) / 2

	var h uint64
	for _, c := range coeffs {
		h <<= 1
		if c > median {
			h |= 1
		}
	}
	return Hash(h), nil
}

func reduce(img image.Image, w, h int) (*image.Gray, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrHashFailed)
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("%w: empty image %dx%d", ErrHashFailed, b.Dx(), b.Dy())
	}
	dst := image.NewGray(image.Rect(0, 0, w, h))
	xdraw.BiLinear.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst, nil
}

// cosTable[u*phashSize+x] = cos((2x+1)u*pi/64).
var cosTable = func() []float64 {
	t := make([]float64, phashLow*phashSize)
	for u := 0; u < phashLow; u++ {
		for x := 0; x < phashSize; x++ {
			t[u*phashSize+x] = math.Cos(float64(2*x+1) * float64(u) * math.Pi / (2 * phashSize))
		}
	}
	return t
}()

// dctLowFrequencies computes the unnormalized separable DCT-II of a 32x32
// block and returns the top-left 8x8 coefficients, row-major.
func dctLowFrequencies(pixels []float64) []float64 {
	// Rows first: rowPass[y*8+u] = sum_x f(x,y) cos_u(x).
	rowPass := make([]float64, phashSize*phashLow)
	for y := 0; y < phashSize; y++ {
		for u := 0; u < phashLow; u++ {
			var sum float64
			for x := 0; x < phashSize; x++ {
				sum += pixels[y*phashSize+x] * cosTable[u*phashSize+x]
			}
			rowPass[y*phashLow+u] = sum
		}
	}
	out := make([]float64, phashLow*phashLow)
	for v := 0; v < phashLow; v++ {
		for u := 0; u < phashLow; u++ {
			var sum float64
			for y := 0; y < phashSize; y++ {
				sum += rowPass[y*phashLow+u] * cosTable[v*phashSize+y]
			}
			out[v*phashLow+u] = sum
		}
	}
	return out
}
