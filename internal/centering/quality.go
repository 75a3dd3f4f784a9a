package centering

import (
	"math"

	"cardscan/internal/config"
)

const (
	softQualityFactor    = 0.5
	degenerateConfidence = 0.2
)

// EvaluateQuality is the structural gate applied after detection. It
// recognizes boxes that look like detection artifacts rather than a real
// card border: a full-frame outer box, or an inferred inner box that lands
// on exactly 50/50. Soft hits halve the confidence; degenerate or invalid
// measurements are capped at 0.2.
func EvaluateQuality(m *Measurement, c config.Centering) Quality {
	q := Quality{Confidence: m.DetectionConfidence}

	fullFrame := false
	if m.ImageWidth > 0 && m.ImageHeight > 0 {
		fullFrame = float64(m.Outer.W) >= c.FullFrameCoverage*float64(m.ImageWidth) &&
			float64(m.Outer.H) >= c.FullFrameCoverage*float64(m.ImageHeight)
	}
	perfect := m.LRRatio != nil && m.TBRatio != nil && *m.LRRatio == 0.5 && *m.TBRatio == 0.5
	derived := m.HasFlag(FlagInnerMarginDerived)

	if fullFrame {
		q.Flags = append(q.Flags, FlagFullFrameOuter)
	}
	if perfect {
		q.Flags = append(q.Flags, FlagPerfectRatios)
	}
	if derived {
		q.Flags = append(q.Flags, FlagInnerMarginDerived)
	}
	if m.Invalid {
		q.Flags = append(q.Flags, FlagInvalid)
	}

	q.Degenerate = fullFrame || (derived && perfect)
	if perfect || derived {
		q.Confidence *= softQualityFactor
	}
	if q.Degenerate || m.Invalid {
		q.Confidence = math.Min(q.Confidence, degenerateConfidence)
	}
	return q
}
