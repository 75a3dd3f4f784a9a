package imagesource

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"os"

	// Registered decoders.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrDecodeFailed is returned when a face image cannot be read or decoded.
var ErrDecodeFailed = errors.New("image_decode_failed")

// DefaultMaxPixels bounds the decoded raster size.
const DefaultMaxPixels = 80_000_000

const headerPeekSize = 64 * 1024

// Image is a decoded face photograph.
type Image struct {
	Path   string
	Format string
	Width  int
	Height int
	Image  image.Image
}

// Loader decodes face photographs from disk.
type Loader struct {
	maxPixels int
}

// NewLoader returns a loader that rejects rasters larger than maxPixels.
// A non-positive limit uses DefaultMaxPixels.
func NewLoader(maxPixels int) *Loader {
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	return &Loader{maxPixels: maxPixels}
}

// Open reads and decodes the image at path.
func (l *Loader) Open(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecodeFailed, err)
	}
	defer f.Close()

	img, err := l.Decode(f)
	if err != nil {
		return nil, err
	}
	img.Path = path
	return img, nil
}

// Decode reads an image from r. The header is inspected before the full
// decode so oversized rasters are rejected cheaply.
func (l *Loader) Decode(r io.Reader) (*Image, error) {
	br := bufio.NewReaderSize(r, headerPeekSize)
	header, err := br.Peek(headerPeekSize)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrDecodeFailed, err)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(header))
	if err == nil && cfg.Width*cfg.Height > l.maxPixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrDecodeFailed, cfg.Width, cfg.Height, l.maxPixels)
	}

	img, format, err := image.Decode(br)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecodeFailed, err)
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("%w: empty raster", ErrDecodeFailed)
	}
	return &Image{
		Format: format,
		Width:  b.Dx(),
		Height: b.Dy(),
		Image:  img,
	}, nil
}
