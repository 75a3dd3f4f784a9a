package imagesource_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"cardscan/internal/imagesource"
	"cardscan/internal/testsupport"
)

func TestOpenPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "front.png")
	testsupport.WriteImage(t, path, testsupport.Pattern(120, 168, 5))

	img, err := imagesource.NewLoader(0).Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if img.Format != "png" || img.Width != 120 || img.Height != 168 || img.Path != path {
		t.Fatalf("unexpected image metadata %+v", img)
	}
}

func TestDecodeExtendedFormats(t *testing.T) {
	src := testsupport.Pattern(40, 56, 9)
	tests := []struct {
		format string
		encode func(*bytes.Buffer) error
	}{
		{"bmp", func(buf *bytes.Buffer) error { return bmp.Encode(buf, src) }},
		{"tiff", func(buf *bytes.Buffer) error { return tiff.Encode(buf, src, nil) }},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			if err := tt.encode(&buf); err != nil {
				t.Fatalf("encode: %v", err)
			}
			img, err := imagesource.NewLoader(0).Decode(&buf)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if img.Format != tt.format || img.Width != 40 || img.Height != 56 {
				t.Fatalf("unexpected metadata %+v", img)
			}
		})
	}
}

func TestDecodeFailures(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "garbage.jpg")
	if err := os.WriteFile(garbage, []byte("definitely not an image"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	large := filepath.Join(dir, "large.png")
	testsupport.WriteImage(t, large, testsupport.Pattern(100, 100, 1))

	tests := []struct {
		name   string
		path   string
		loader *imagesource.Loader
	}{
		{"missing", filepath.Join(dir, "missing.png"), imagesource.NewLoader(0)},
		{"garbage", garbage, imagesource.NewLoader(0)},
		{"too large", large, imagesource.NewLoader(5000)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.loader.Open(tt.path); !errors.Is(err, imagesource.ErrDecodeFailed) {
				t.Fatalf("expected ErrDecodeFailed, got %v", err)
			}
		})
	}
}
