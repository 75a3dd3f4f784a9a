package store

import (
	"time"

	"cardscan/internal/fingerprint"
	"cardscan/internal/imagehash"
)

// Status is the overall outcome of a scan.
type Status string

const (
	// StatusOK means both requested faces were analyzed and hashed.
	StatusOK Status = "ok"
	// StatusPartial means at least one face succeeded and one failed.
	StatusPartial Status = "partial"
	// StatusFailed means no face produced usable output.
	StatusFailed Status = "failed"
)

// Scan is a persisted analysis of one physical card.
type Scan struct {
	ID             string
	Owner          string
	CreatedAt      time.Time
	Status         Status
	Front          *imagehash.Pair
	Back           *imagehash.Pair
	FingerprintKey string
	ItemID         string
	OverallTier    string
	AnalysisJSON   string
}

// Fingerprint returns the scan's hash pairs.
func (s *Scan) Fingerprint() fingerprint.Fingerprint {
	return fingerprint.Fingerprint{Front: s.Front, Back: s.Back}
}

// Binding associates a fingerprint key with a physical item.
type Binding struct {
	Key       string    `json:"fingerprint_key"`
	ItemID    string    `json:"item_id"`
	CreatedAt time.Time `json:"created_at"`
}
