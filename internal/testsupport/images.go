package testsupport

import (
	"image"
	"image/color"
	"image/png"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"
)

// Gray levels used by CardImage.
var (
	Background = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	CardBorder = color.RGBA{R: 77, G: 77, B: 77, A: 255}
	CardArt    = color.RGBA{R: 178, G: 178, B: 178, A: 255}
)

// CardImage renders a flat synthetic card: a white background, a dark card
// rectangle, and a lighter printed frame inside it.
func CardImage(width, height int, card, art image.Rectangle) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	fill(img, img.Bounds(), Background)
	fill(img, card, CardBorder)
	fill(img, art, CardArt)
	return img
}

// ToneCard renders the same layout as CardImage with caller-chosen gray
// levels, for low-contrast photos.
func ToneCard(width, height int, card, art image.Rectangle, background, border, artTone uint8) *image.RGBA {
	gray := func(v uint8) color.RGBA { return color.RGBA{R: v, G: v, B: v, A: 255} }
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	fill(img, img.Bounds(), gray(background))
	fill(img, card, gray(border))
	fill(img, art, gray(artTone))
	return img
}

// CenteredCard renders a card occupying cardFrac of the frame whose printed
// frame is inset by marginFrac of the card on every side.
func CenteredCard(width, height int, cardFrac, marginFrac float64) (*image.RGBA, image.Rectangle, image.Rectangle) {
	cw := int(float64(width) * cardFrac)
	ch := int(float64(height) * cardFrac)
	card := image.Rect((width-cw)/2, (height-ch)/2, (width-cw)/2+cw, (height-ch)/2+ch)
	mx := int(float64(cw) * marginFrac)
	my := int(float64(ch) * marginFrac)
	art := image.Rect(card.Min.X+mx, card.Min.Y+my, card.Max.X-mx, card.Max.Y-my)
	return CardImage(width, height, card, art), card, art
}

// Pattern renders a deterministic blocky texture. Different seeds give
// visually unrelated images.
func Pattern(width, height int, seed uint64) *image.RGBA {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	const cells = 8
	cw := max(1, width/cells)
	ch := max(1, height/cells)
	for y := 0; y < height; y += ch {
		for x := 0; x < width; x += cw {
			v := uint8(rng.IntN(256))
			fill(img, image.Rect(x, y, x+cw, y+ch), color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

// Gradient renders a horizontal luminance ramp.
func Gradient(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := uint8(x * 255 / max(1, width-1))
			img.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

// WriteImage encodes img as PNG at path, creating parent directories.
func WriteImage(t testing.TB, path string, img image.Image) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
}

func fill(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	r = r.Intersect(img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}
