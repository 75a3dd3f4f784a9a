// Package warp maps a card's boundary quad onto a fixed-size raster so the
// hash engine always sees size-normalized faces.
package warp
