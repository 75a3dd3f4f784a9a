package fingerprint

import "cardscan/internal/config"

// Policy centralizes the matcher's decision thresholds and face weights.
type Policy struct {
	SameThreshold      float64
	DifferentThreshold float64
	PHashWeight        float64
	DHashWeight        float64
	ShortlistSize      int
}

// DefaultPolicy returns the thresholds the matcher was tuned with.
func DefaultPolicy() Policy {
	return Policy{
		SameThreshold:      0.85,
		DifferentThreshold: 0.50,
		PHashWeight:        0.55,
		DHashWeight:        0.45,
		ShortlistSize:      20,
	}
}

// PolicyFromConfig maps the matching section of the config onto a Policy.
func PolicyFromConfig(m config.Matching) Policy {
	return Policy{
		SameThreshold:      m.SameThreshold,
		DifferentThreshold: m.DifferentThreshold,
		PHashWeight:        m.PHashWeight,
		DHashWeight:        m.DHashWeight,
		ShortlistSize:      m.ShortlistSize,
	}.normalized()
}

func (p Policy) normalized() Policy {
	d := DefaultPolicy()

	if p.SameThreshold <= 0 || p.SameThreshold > 1 {
		p.SameThreshold = d.SameThreshold
	}
	if p.DifferentThreshold < 0 || p.DifferentThreshold >= p.SameThreshold {
		p.DifferentThreshold = min(d.DifferentThreshold, p.SameThreshold/2)
	}
	if p.PHashWeight < 0 || p.DHashWeight < 0 || p.PHashWeight+p.DHashWeight <= 0 {
		p.PHashWeight = d.PHashWeight
		p.DHashWeight = d.DHashWeight
	}
	if p.ShortlistSize <= 0 {
		p.ShortlistSize = d.ShortlistSize
	}

	return p
}
