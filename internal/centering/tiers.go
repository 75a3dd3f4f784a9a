package centering

import (
	"cardscan/internal/config"
)

// ClassifyTier maps a face's worst-axis percentage to a condition tier using
// the per-face cutoffs. A missing value is below_gem.
func ClassifyTier(face Face, faceWorst *float64, tiers config.Tiers) Tier {
	if faceWorst == nil {
		return TierBelowGem
	}
	pristine, gem := tiers.FrontPristine, tiers.FrontGemMint
	if face == FaceBack {
		pristine, gem = tiers.BackPristine, tiers.BackGemMint
	}
	switch {
	case *faceWorst <= pristine:
		return TierPristine
	case *faceWorst <= gem:
		return TierGemMint
	default:
		return TierBelowGem
	}
}

// OverallTier is the lowest tier among the analyzed faces. No faces means
// below_gem.
func OverallTier(tiers ...Tier) Tier {
	if len(tiers) == 0 {
		return TierBelowGem
	}
	overall := tiers[0]
	for _, t := range tiers[1:] {
		if t.Rank() < overall.Rank() {
			overall = t
		}
	}
	return overall
}

// Subgrade maps a face's worst-axis percentage onto the configured buckets.
// Buckets are expected sorted ascending by MaxWorst, which config.Load
// guarantees.
func Subgrade(face Face, faceWorst *float64, tiers config.Tiers) float64 {
	if faceWorst == nil {
		return tiers.FloorSubgrade
	}
	buckets := tiers.FrontSubgrades
	if face == FaceBack {
		buckets = tiers.BackSubgrades
	}
	for _, b := range buckets {
		if *faceWorst <= b.MaxWorst {
			return b.Grade
		}
	}
	return tiers.FloorSubgrade
}

// OverallSubgrade is the minimum subgrade across faces.
func OverallSubgrade(grades ...float64) float64 {
	if len(grades) == 0 {
		return 0
	}
	low := grades[0]
	for _, g := range grades[1:] {
		low = min(low, g)
	}
	return low
}
