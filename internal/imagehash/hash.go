package imagehash

import (
	"errors"
	"fmt"
	"math/bits"
	"strconv"
	"strings"
)

// ErrHashFailed is returned when an image cannot be hashed.
var ErrHashFailed = errors.New("hash_failed")

// Bits is the width of every hash.
const Bits = 64

// Hash is a 64-bit perceptual hash. Its canonical text form is 16 lowercase
// hex digits.
type Hash uint64

// String returns the canonical 16-digit hex form.
func (h Hash) String() string {
	return fmt.Sprintf("%016x", uint64(h))
}

// MarshalText implements encoding.TextMarshaler.
func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Hash) UnmarshalText(text []byte) error {
	parsed, err := ParseHash(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// ParseHash parses exactly 16 hex digits, case-insensitively.
func ParseHash(value string) (Hash, error) {
	value = strings.TrimSpace(value)
	if len(value) != 16 {
		return 0, fmt.Errorf("parse hash %q: want 16 hex digits", value)
	}
	v, err := strconv.ParseUint(value, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("parse hash %q: %w", value, err)
	}
	return Hash(v), nil
}

// Distance is the Hamming distance between two hashes, in [0,64].
func Distance(a, b Hash) int {
	return bits.OnesCount64(uint64(a ^ b))
}

// Similarity maps a Hamming distance onto [0,1], where 1 is identical.
func Similarity(distance int) float64 {
	return 1 - float64(distance)/Bits
}

// Pair holds both hashes computed for one face.
type Pair struct {
	PHash Hash `json:"phash"`
	DHash Hash `json:"dhash"`
}

// String renders the pair as "phash.dhash".
func (p Pair) String() string {
	return p.PHash.String() + "." + p.DHash.String()
}

// ParsePair parses the "phash.dhash" form produced by Pair.String.
func ParsePair(value string) (Pair, error) {
	phash, dhash, ok := strings.Cut(strings.TrimSpace(value), ".")
	if !ok {
		return Pair{}, fmt.Errorf("parse hash pair %q: want phash.dhash", value)
	}
	p, err := ParseHash(phash)
	if err != nil {
		return Pair{}, err
	}
	d, err := ParseHash(dhash)
	if err != nil {
		return Pair{}, err
	}
	return Pair{PHash: p, DHash: d}, nil
}
