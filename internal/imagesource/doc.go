// Package imagesource decodes face photographs. PNG, JPEG and GIF come from
// the standard library; WebP, BMP and TIFF from golang.org/x/image. Every
// failure surfaces as ErrDecodeFailed.
package imagesource
