package fingerprint

import "cardscan/internal/imagehash"

// Decision is the matcher's verdict on whether two fingerprints show the same
// physical card.
type Decision string

const (
	DecisionSame      Decision = "same"
	DecisionDifferent Decision = "different"
	DecisionUncertain Decision = "uncertain"
)

// Reason explains a decision that was not reached by scoring.
type Reason string

const (
	ReasonNone          Reason = ""
	ReasonNoHashes      Reason = "no_hashes"
	ReasonNoCandidates  Reason = "no_candidates"
	ReasonNoFaceOverlap Reason = "no_face_overlap"
)

// Fingerprint is the per-face hash pairs of one scan. Either face may be
// missing.
type Fingerprint struct {
	Front *imagehash.Pair `json:"front,omitempty"`
	Back  *imagehash.Pair `json:"back,omitempty"`
}

// Empty reports whether neither face was hashed.
func (f Fingerprint) Empty() bool {
	return f.Front == nil && f.Back == nil
}

// Candidate is a prior scan offered to the matcher.
type Candidate struct {
	ID  string `json:"id"`
	Key string `json:"key,omitempty"`
	Fingerprint
}

// Result is one match attempt. It is computed fresh per call and never
// persisted by the matcher.
type Result struct {
	Decision        Decision   `json:"decision"`
	Score           float64    `json:"score"`
	Reason          Reason     `json:"reason,omitempty"`
	BestCandidateID string     `json:"best_candidate_id,omitempty"`
	BestCandidate   *Candidate `json:"-"`
	FacesCompared   int        `json:"faces_compared"`
	Considered      int        `json:"considered"`
	Shortlisted     int        `json:"shortlisted"`
}
