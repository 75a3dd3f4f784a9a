// Package imagehash computes 64-bit perceptual hashes of card faces.
//
// DHash tracks horizontal brightness gradients and PHash tracks the low
// frequency DCT structure. Both are stable under re-encoding, mild scaling
// and small brightness shifts, and are compared by Hamming distance.
package imagehash
