package scan

import (
	"time"

	"cardscan/internal/centering"
	"cardscan/internal/fingerprint"
	"cardscan/internal/imagehash"
	"cardscan/internal/quad"
	"cardscan/internal/store"
)

// Face-level failure tokens raised outside the centering analyzer.
const (
	FailureImageDecode         = "image_decode_failed"
	FailureBoundaryUnavailable = "boundary_unavailable"
	FailureWarp                = "warp_failed"
	FailureHash                = "hash_failed"
)

// Request describes one scan to process.
type Request struct {
	// ScanID identifies the scan. A new id is generated when empty;
	// reprocessing an existing id replaces the stored analysis.
	ScanID    string
	Owner     string
	FrontPath string
	BackPath  string
	// FrontQuad and BackQuad are optional caller-supplied boundaries, in
	// either coordinate space.
	FrontQuad *quad.Raw
	BackQuad  *quad.Raw
}

// FaceReport is the outcome for one photographed face.
type FaceReport struct {
	Face      centering.Face    `json:"face"`
	Path      string            `json:"path"`
	Format    string            `json:"format,omitempty"`
	Width     int               `json:"width,omitempty"`
	Height    int               `json:"height,omitempty"`
	Centering *centering.Result `json:"centering,omitempty"`
	Boundary  *quad.Quad        `json:"boundary,omitempty"`
	// BoundaryCheck is the polygon check applied to a detected outer box
	// before it is used for warping.
	BoundaryCheck *quad.Outcome   `json:"boundary_check,omitempty"`
	Hashes        *imagehash.Pair `json:"hashes,omitempty"`
	// Failure is the pipeline token for a face that could not be decoded,
	// warped or hashed. Centering failures stay on Centering.Failure.
	Failure string `json:"failure,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

// OK reports whether the face has a valid measurement and hashes.
func (f FaceReport) OK() bool {
	return f.Failure == "" && f.Hashes != nil && f.Centering != nil && f.Centering.OK()
}

// Measurement returns the centering measurement, or nil.
func (f FaceReport) Measurement() *centering.Measurement {
	if f.Centering == nil {
		return nil
	}
	return f.Centering.Measurement
}

// Report is the outcome of Service.Process.
type Report struct {
	ScanID          string                  `json:"scan_id"`
	Owner           string                  `json:"owner"`
	CreatedAt       time.Time               `json:"created_at"`
	Status          store.Status            `json:"status"`
	Faces           []FaceReport            `json:"faces"`
	OverallTier     centering.Tier          `json:"overall_tier,omitempty"`
	OverallSubgrade *float64                `json:"overall_subgrade,omitempty"`
	Fingerprint     fingerprint.Fingerprint `json:"fingerprint"`
	FingerprintKey  string                  `json:"fingerprint_key,omitempty"`
	Match           *fingerprint.Result     `json:"match,omitempty"`
	Binding         *fingerprint.Binding    `json:"binding,omitempty"`
	ItemID          string                  `json:"item_id,omitempty"`
	Persisted       bool                    `json:"persisted"`
}

// Face returns the report for face, if it was supplied.
func (r *Report) Face(face centering.Face) (FaceReport, bool) {
	for _, f := range r.Faces {
		if f.Face == face {
			return f, true
		}
	}
	return FaceReport{}, false
}

// summarize derives status, tiers and the fingerprint from the face reports.
func (r *Report) summarize() {
	ok := 0
	var (
		tiers     []centering.Tier
		subgrades []float64
	)
	for _, f := range r.Faces {
		if f.OK() {
			ok++
		}
		if m := f.Measurement(); m != nil {
			tiers = append(tiers, m.TagTier)
			subgrades = append(subgrades, m.Subgrade)
		}
		switch f.Face {
		case centering.FaceFront:
			r.Fingerprint.Front = f.Hashes
		case centering.FaceBack:
			r.Fingerprint.Back = f.Hashes
		}
	}

	switch {
	case ok == 0:
		r.Status = store.StatusFailed
	case ok < len(r.Faces):
		r.Status = store.StatusPartial
	default:
		r.Status = store.StatusOK
	}

	if len(tiers) > 0 {
		r.OverallTier = centering.OverallTier(tiers...)
		sub := centering.OverallSubgrade(subgrades...)
		r.OverallSubgrade = &sub
	}
}
