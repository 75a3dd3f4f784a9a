package fingerprint

import (
	"cmp"
	"log/slog"
	"slices"

	"cardscan/internal/imagehash"
	"cardscan/internal/logging"
)

// missingFaceDistance sorts candidates without the primary face after every
// real distance.
const missingFaceDistance = imagehash.Bits + 1

// Matcher scores a fingerprint against prior candidates.
type Matcher struct {
	policy Policy
	logger *slog.Logger
}

// Option customises the Matcher.
type Option func(*Matcher)

// WithPolicy overrides the decision thresholds.
func WithPolicy(p Policy) Option {
	return func(m *Matcher) {
		m.policy = p.normalized()
	}
}

// WithLogger attaches a logger for decision records.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Matcher) {
		if logger != nil {
			m.logger = logging.NewComponentLogger(logger, "matcher")
		}
	}
}

// NewMatcher constructs a matcher with DefaultPolicy unless overridden.
func NewMatcher(opts ...Option) *Matcher {
	m := &Matcher{
		policy: DefaultPolicy(),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Policy returns the effective policy.
func (m *Matcher) Policy() Policy {
	return m.policy
}

// FaceScore combines the per-hash similarities of one face.
func (m *Matcher) FaceScore(a, b imagehash.Pair) float64 {
	p := imagehash.Similarity(imagehash.Distance(a.PHash, b.PHash))
	d := imagehash.Similarity(imagehash.Distance(a.DHash, b.DHash))
	total := m.policy.PHashWeight + m.policy.DHashWeight
	return (m.policy.PHashWeight*p + m.policy.DHashWeight*d) / total
}

// Score averages the face scores over the faces both fingerprints carry. It
// returns the number of faces compared; zero means no overlap and a score of 0.
func (m *Matcher) Score(current, candidate Fingerprint) (float64, int) {
	var sum float64
	faces := 0
	if current.Front != nil && candidate.Front != nil {
		sum += m.FaceScore(*current.Front, *candidate.Front)
		faces++
	}
	if current.Back != nil && candidate.Back != nil {
		sum += m.FaceScore(*current.Back, *candidate.Back)
		faces++
	}
	if faces == 0 {
		return 0, 0
	}
	return sum / float64(faces), faces
}

// Decide maps a score onto a decision using the policy thresholds.
func (m *Matcher) Decide(score float64) Decision {
	switch {
	case score >= m.policy.SameThreshold:
		return DecisionSame
	case score <= m.policy.DifferentThreshold:
		return DecisionDifferent
	default:
		return DecisionUncertain
	}
}

// Match scores current against the closest candidates and returns the
// decision for the best one. Candidates are first shortlisted by the pHash
// distance of whichever face current actually has (front preferred).
func (m *Matcher) Match(current Fingerprint, candidates []Candidate) Result {
	res := m.match(current, candidates)
	attrs := logging.DecisionAttrs("fingerprint_match", string(res.Decision), string(res.Reason))
	attrs = append(attrs,
		logging.Float64("score", res.Score),
		logging.String("best_candidate_id", res.BestCandidateID),
		logging.Int("considered", res.Considered),
		logging.Int("shortlisted", res.Shortlisted),
	)
	m.logger.Debug("fingerprint match", logging.Args(attrs...)...)
	return res
}

func (m *Matcher) match(current Fingerprint, candidates []Candidate) Result {
	if current.Empty() {
		return Result{Decision: DecisionUncertain, Reason: ReasonNoHashes}
	}
	if len(candidates) == 0 {
		return Result{Decision: DecisionDifferent, Reason: ReasonNoCandidates}
	}

	shortlist := m.shortlist(current, candidates)
	res := Result{Considered: len(candidates), Shortlisted: len(shortlist)}

	bestScore, bestFaces, bestIdx := -1.0, 0, -1
	for i := range shortlist {
		score, faces := m.Score(current, shortlist[i].Fingerprint)
		if faces == 0 {
			continue
		}
		if score > bestScore {
			bestScore, bestFaces, bestIdx = score, faces, i
		}
	}
	if bestIdx < 0 {
		res.Decision = DecisionUncertain
		res.Reason = ReasonNoFaceOverlap
		return res
	}

	best := shortlist[bestIdx]
	res.Score = bestScore
	res.FacesCompared = bestFaces
	res.BestCandidateID = best.ID
	res.BestCandidate = &best
	res.Decision = m.Decide(bestScore)
	return res
}

func (m *Matcher) shortlist(current Fingerprint, candidates []Candidate) []Candidate {
	primary := func(fp Fingerprint) *imagehash.Pair { return fp.Front }
	if current.Front == nil {
		primary = func(fp Fingerprint) *imagehash.Pair { return fp.Back }
	}
	target := primary(current)

	type ranked struct {
		candidate Candidate
		distance  int
	}
	ranks := make([]ranked, len(candidates))
	for i, c := range candidates {
		dist := missingFaceDistance
		if face := primary(c.Fingerprint); face != nil {
			dist = imagehash.Distance(target.PHash, face.PHash)
		}
		ranks[i] = ranked{candidate: c, distance: dist}
	}
	slices.SortStableFunc(ranks, func(a, b ranked) int {
		return cmp.Compare(a.distance, b.distance)
	})

	n := min(len(ranks), m.policy.ShortlistSize)
	out := make([]Candidate, n)
	for i := range n {
		out[i] = ranks[i].candidate
	}
	return out
}
