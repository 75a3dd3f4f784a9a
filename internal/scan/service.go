package scan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"cardscan/internal/centering"
	"cardscan/internal/config"
	"cardscan/internal/fingerprint"
	"cardscan/internal/imagehash"
	"cardscan/internal/imagesource"
	"cardscan/internal/logging"
	"cardscan/internal/quad"
	"cardscan/internal/scanlock"
	"cardscan/internal/store"
	"cardscan/internal/warp"
)

var (
	// ErrNoFaces is returned when a request names neither a front nor a back image.
	ErrNoFaces = errors.New("scan requires a front or back image")
	// ErrStoreDisabled is returned by operations that need the scan store.
	ErrStoreDisabled = errors.New("scan store is disabled")
)

const lockRetryInterval = 100 * time.Millisecond

// Service analyzes, fingerprints and identifies card scans.
type Service struct {
	cfg      *config.Config
	store    *store.Store
	logger   *slog.Logger
	loader   *imagesource.Loader
	analyzer *centering.Analyzer
	warper   *warp.Warper
	matcher  *fingerprint.Matcher
	binder   *fingerprint.Binder
	locker   *scanlock.Locker
	lockWait time.Duration
	newID    func() string
	now      func() time.Time
}

// Option configures optional Service behavior.
type Option func(*Service)

// WithLoader replaces the image loader.
func WithLoader(loader *imagesource.Loader) Option {
	return func(s *Service) {
		if loader != nil {
			s.loader = loader
		}
	}
}

// WithIDGenerator replaces the generator used for scan and item ids.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithLockWait makes Process and Rescore wait up to d for a scan that is
// being analyzed elsewhere instead of failing with scanlock.ErrLocked.
func WithLockWait(d time.Duration) Option {
	return func(s *Service) {
		s.lockWait = d
	}
}

// WithClock replaces the clock used to stamp reports.
func WithClock(fn func() time.Time) Option {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService wires the analysis pipeline from cfg. A nil store disables
// candidate lookup, identity binding and persistence.
func NewService(cfg *config.Config, st *store.Store, logger *slog.Logger, opts ...Option) *Service {
	logger = logging.NewComponentLogger(logger, "scan")
	var bindings fingerprint.BindingStore
	if st != nil {
		bindings = st
	}
	matcher := fingerprint.NewMatcher(
		fingerprint.WithPolicy(fingerprint.PolicyFromConfig(cfg.Matching)),
		fingerprint.WithLogger(logger),
	)
	s := &Service{
		cfg:      cfg,
		store:    st,
		logger:   logger,
		loader:   imagesource.NewLoader(0),
		analyzer: centering.NewAnalyzer(cfg),
		warper:   warp.New(cfg.Warp),
		matcher:  matcher,
		binder:   fingerprint.NewBinder(bindings, logger),
		locker:   scanlock.New(cfg.LockDir()),
		newID:    uuid.NewString,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Process runs the full pipeline for req. Domain failures (undecodable
// images, undetected borders, uncertain matches) are reported in the
// Report; an error means the scan could not be processed at all, for
// example because it is locked or the store failed.
func (s *Service) Process(ctx context.Context, req Request) (*Report, error) {
	if strings.TrimSpace(req.FrontPath) == "" && strings.TrimSpace(req.BackPath) == "" {
		return nil, ErrNoFaces
	}
	scanID := strings.TrimSpace(req.ScanID)
	if scanID == "" {
		scanID = s.newID()
	}

	lock, err := s.acquire(ctx, scanID)
	if err != nil {
		return nil, err
	}
	defer s.release(lock, scanID)

	report := &Report{
		ScanID:    scanID,
		Owner:     store.NormalizeOwner(req.Owner),
		CreatedAt: s.now().UTC(),
	}
	logger := s.logger.With(
		logging.String(logging.FieldScanID, scanID),
		logging.String(logging.FieldOwner, report.Owner),
	)

	faces := []struct {
		face centering.Face
		path string
		quad *quad.Raw
	}{
		{centering.FaceFront, strings.TrimSpace(req.FrontPath), req.FrontQuad},
		{centering.FaceBack, strings.TrimSpace(req.BackPath), req.BackQuad},
	}
	for _, f := range faces {
		if f.path == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		report.Faces = append(report.Faces, s.analyzeFace(logger, f.face, f.path, f.quad))
	}
	report.summarize()

	attrs := logging.DecisionAttrs("scan_status", string(report.Status), "")
	attrs = append(attrs,
		logging.String("overall_tier", string(report.OverallTier)),
		logging.Int("faces", len(report.Faces)),
	)
	logger.Info("scan analyzed", logging.Args(attrs...)...)

	if err := s.identify(ctx, logger, report); err != nil {
		return nil, err
	}
	if err := s.persist(ctx, report); err != nil {
		return nil, err
	}
	return report, nil
}

func (s *Service) acquire(ctx context.Context, scanID string) (*scanlock.Lock, error) {
	if s.lockWait <= 0 {
		return s.locker.TryAcquire(scanID)
	}
	waitCtx, cancel := context.WithTimeout(ctx, s.lockWait)
	defer cancel()
	return s.locker.Acquire(waitCtx, scanID, lockRetryInterval)
}

func (s *Service) release(lock *scanlock.Lock, scanID string) {
	if err := lock.Release(); err != nil {
		logging.WarnWithContext(s.logger, "scan lock release failed", "scan_lock_release_failed",
			logging.String(logging.FieldScanID, scanID),
			logging.Error(err),
			logging.String(logging.FieldImpact, "later runs for this scan may wait on a stale lock"),
		)
	}
}

// AnalyzeFace runs decode, centering, warp and hashing for a single
// photograph without locking, matching or persisting anything.
func (s *Service) AnalyzeFace(face centering.Face, path string, userQuad *quad.Raw) FaceReport {
	return s.analyzeFace(s.logger, face, path, userQuad)
}

// analyzeFace records every failure on the returned report.
func (s *Service) analyzeFace(logger *slog.Logger, face centering.Face, path string, userQuad *quad.Raw) FaceReport {
	logger = logger.With(logging.String(logging.FieldFace, string(face)))
	rep := FaceReport{Face: face, Path: path}

	img, err := s.loader.Open(path)
	if err != nil {
		rep.fail(FailureImageDecode, err)
		logging.WarnWithContext(logger, "face image could not be decoded", "image_decode_failed",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the file exists and is a supported image format"),
			logging.String(logging.FieldImpact, "face excluded from centering and fingerprint"),
		)
		return rep
	}
	rep.Format = img.Format
	rep.Width = img.Width
	rep.Height = img.Height

	res := s.analyzer.Analyze(face, img.Image, userQuad)
	rep.Centering = &res
	if res.Failure != centering.FailureNone {
		logging.WarnWithContext(logger, "centering analysis failed", "centering_failed",
			logging.String("reason", string(res.Failure)),
			logging.String(logging.FieldErrorHint, "retake the photo on a plain background or supply a boundary quad"),
			logging.String(logging.FieldImpact, "face has no valid centering measurement"),
		)
	} else if m := res.Measurement; m != nil {
		attrs := logging.DecisionAttrs("centering_tier", string(m.TagTier), "")
		attrs = append(attrs,
			logging.Float64("confidence", m.Confidence),
			logging.Float64("subgrade", m.Subgrade),
		)
		if m.FaceWorst != nil {
			attrs = append(attrs, logging.Float64("face_worst", *m.FaceWorst))
		}
		logger.Debug("centering measured", logging.Args(attrs...)...)
	}

	boundary, check, ok := s.boundaryFor(res, img.Width, img.Height)
	rep.BoundaryCheck = check
	if !ok {
		var err error
		if check != nil {
			err = fmt.Errorf("outer box rejected: %s", check.Reason)
		}
		rep.fail(FailureBoundaryUnavailable, err)
		return rep
	}
	rep.Boundary = &boundary

	warped, err := s.warper.Warp(img.Image, boundary)
	if err != nil {
		rep.fail(FailureWarp, err)
		logging.WarnWithContext(logger, "boundary warp failed", "warp_failed",
			logging.String("boundary", boundary.String()),
			logging.Error(err),
			logging.String(logging.FieldImpact, "face excluded from fingerprint"),
		)
		return rep
	}
	pair, err := imagehash.Compute(warped)
	if err != nil {
		rep.fail(FailureHash, err)
		logging.WarnWithContext(logger, "perceptual hash failed", "hash_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "face excluded from fingerprint"),
		)
		return rep
	}
	rep.Hashes = &pair
	logger.Debug("face hashed", logging.String("hashes", pair.String()))
	return rep
}

// boundaryFor picks the quad to warp: the caller's quad when the validator
// accepted it, otherwise the detected outer box if it passes the polygon
// check.
func (s *Service) boundaryFor(res centering.Result, imageW, imageH int) (quad.Quad, *quad.Outcome, bool) {
	if res.AcceptedQuad != nil {
		return *res.AcceptedQuad, nil, true
	}
	m := res.Measurement
	if m == nil || m.Outer.Empty() {
		return quad.Quad{}, nil, false
	}
	q := m.Outer.Quad(imageW, imageH, quad.ProvenanceAuto)
	check := quad.ValidatePolygon(q, imageW, imageH, s.cfg.Geometry)
	return q, &check, check.Accepted
}

func (f *FaceReport) fail(token string, err error) {
	f.Failure = token
	if err != nil {
		f.Detail = err.Error()
	}
}

// Identification is the identity answer for one fingerprint before anything
// is written.
type Identification struct {
	Key     string              `json:"key"`
	Match   fingerprint.Result  `json:"match"`
	Binding fingerprint.Binding `json:"binding"`
	// Exact is set when the key was already bound and no candidates were
	// scored.
	Exact bool `json:"exact"`
}

// Identify answers whether fp belongs to a known item. An already bound key
// wins regardless of owner; otherwise owner's stored scans, minus
// excludeID, are matched and the binder's outcome is reported. Nothing is
// written.
func (s *Service) Identify(ctx context.Context, owner, excludeID string, fp fingerprint.Fingerprint) (Identification, error) {
	key, ok := fingerprint.Key(fp)
	id := Identification{Key: key}

	if ok {
		binding, found, err := s.binder.Lookup(ctx, key)
		if err != nil {
			return id, err
		}
		if found {
			id.Match = fingerprint.Result{
				Decision:      fingerprint.DecisionSame,
				Score:         1,
				FacesCompared: faceCount(fp),
			}
			id.Binding = binding
			id.Exact = true
			return id, nil
		}
	}

	var candidates []fingerprint.Candidate
	if ok && s.store != nil {
		var err error
		candidates, err = s.store.Candidates(ctx, owner, excludeID, s.cfg.Matching.CandidateLimit)
		if err != nil {
			return id, fmt.Errorf("load candidates: %w", err)
		}
	}
	id.Match = s.matcher.Match(fp, candidates)
	binding, err := s.binder.Resolve(ctx, key, id.Match)
	if err != nil {
		return id, err
	}
	id.Binding = binding
	return id, nil
}

// identify runs Identify for the report and applies the binder's outcome to
// the identity store.
func (s *Service) identify(ctx context.Context, logger *slog.Logger, r *Report) error {
	id, err := s.Identify(ctx, r.Owner, r.ScanID, r.Fingerprint)
	r.FingerprintKey = id.Key
	if err != nil {
		return fmt.Errorf("scan %s: %w", r.ScanID, err)
	}
	if !id.Exact {
		if err := s.bind(ctx, &id.Binding, id.Match); err != nil {
			return fmt.Errorf("scan %s: %w", r.ScanID, err)
		}
	}
	r.Match = &id.Match
	r.Binding = &id.Binding
	r.ItemID = id.Binding.ItemID

	if id.Exact {
		attrs := logging.DecisionAttrs("identity_binding", string(id.Binding.Outcome), "exact_key")
		attrs = append(attrs, logging.String(logging.FieldItemID, id.Binding.ItemID))
		logger.Info("fingerprint key already bound", logging.Args(attrs...)...)
		return nil
	}
	attrs := logging.DecisionAttrs("identity_binding", string(id.Binding.Outcome), string(id.Match.Reason))
	attrs = append(attrs,
		logging.String("match_decision", string(id.Match.Decision)),
		logging.Float64("score", id.Match.Score),
		logging.String(logging.FieldItemID, id.Binding.ItemID),
	)
	logger.Info("identity resolved", logging.Args(attrs...)...)
	return nil
}

// bind records the binder's outcome. Bind keeps the first item a key was
// bound to, so the effective item id is always read back from the store.
func (s *Service) bind(ctx context.Context, b *fingerprint.Binding, res fingerprint.Result) error {
	if s.store == nil || b.Key == "" {
		return nil
	}
	switch b.Outcome {
	case fingerprint.OutcomeSameMatchBound:
		itemID, err := s.store.Bind(ctx, b.Key, b.ItemID)
		if err != nil {
			return err
		}
		b.ItemID = itemID
	case fingerprint.OutcomeSameMatchUnbound:
		itemID := s.newID()
		if b.MatchedKey != "" && b.MatchedKey != b.Key {
			bound, err := s.store.Bind(ctx, b.MatchedKey, itemID)
			if err != nil {
				return err
			}
			itemID = bound
		}
		bound, err := s.store.Bind(ctx, b.Key, itemID)
		if err != nil {
			return err
		}
		b.ItemID = bound
		if res.BestCandidateID != "" {
			err := s.store.SetScanItem(ctx, res.BestCandidateID, b.ItemID)
			if err != nil && !errors.Is(err, store.ErrNotFound) {
				return err
			}
		}
	case fingerprint.OutcomeDifferent, fingerprint.OutcomeNoCandidates:
		itemID, err := s.store.Bind(ctx, b.Key, s.newID())
		if err != nil {
			return err
		}
		b.ItemID = itemID
	}
	return nil
}

// Rescore re-measures a stored scan's centering from its recorded boxes
// under the current thresholds. Hashes and identity stay as stored. With
// save set the refreshed analysis replaces the stored row.
func (s *Service) Rescore(ctx context.Context, scanID string, save bool) (*Report, error) {
	if s.store == nil {
		return nil, ErrStoreDisabled
	}
	lock, err := s.acquire(ctx, scanID)
	if err != nil {
		return nil, err
	}
	defer s.release(lock, scanID)

	row, err := s.store.GetScan(ctx, scanID)
	if err != nil {
		return nil, err
	}
	report := &Report{
		ScanID:         row.ID,
		Owner:          row.Owner,
		CreatedAt:      row.CreatedAt,
		FingerprintKey: row.FingerprintKey,
		ItemID:         row.ItemID,
	}
	if err := json.Unmarshal([]byte(row.AnalysisJSON), &report.Faces); err != nil {
		return nil, fmt.Errorf("scan %s: decode analysis: %w", scanID, err)
	}
	for i := range report.Faces {
		s.remeasure(&report.Faces[i])
	}
	report.summarize()

	attrs := logging.DecisionAttrs("centering_rescore", string(report.OverallTier), row.OverallTier)
	attrs = append(attrs, logging.String(logging.FieldScanID, scanID))
	s.logger.Info("scan rescored", logging.Args(attrs...)...)

	if save {
		if err := s.persist(ctx, report); err != nil {
			return nil, err
		}
	}
	return report, nil
}

// remeasure re-scores a face's recorded boxes. Faces without a measurement
// are left alone.
func (s *Service) remeasure(f *FaceReport) {
	old := f.Measurement()
	if old == nil {
		return
	}
	res := s.analyzer.Measure(f.Face, old.Outer, old.Inner, old.ImageWidth, old.ImageHeight,
		old.HasFlag(centering.FlagInnerMarginDerived))
	if m := res.Measurement; m != nil {
		for _, flag := range []string{centering.FlagUserQuad, centering.FlagUserQuadRejected} {
			if old.HasFlag(flag) {
				m.Flags = append(m.Flags, flag)
			}
		}
	}
	res.QuadOutcome = f.Centering.QuadOutcome
	res.AcceptedQuad = f.Centering.AcceptedQuad
	f.Centering = &res
}

func (s *Service) persist(ctx context.Context, r *Report) error {
	if s.store == nil {
		return nil
	}
	analysis, err := json.Marshal(r.Faces)
	if err != nil {
		return fmt.Errorf("scan %s: encode analysis: %w", r.ScanID, err)
	}
	row := &store.Scan{
		ID:             r.ScanID,
		Owner:          r.Owner,
		CreatedAt:      r.CreatedAt,
		Status:         r.Status,
		Front:          r.Fingerprint.Front,
		Back:           r.Fingerprint.Back,
		FingerprintKey: r.FingerprintKey,
		ItemID:         r.ItemID,
		OverallTier:    string(r.OverallTier),
		AnalysisJSON:   string(analysis),
	}
	if err := s.store.InsertScan(ctx, row); err != nil {
		return fmt.Errorf("scan %s: %w", r.ScanID, err)
	}
	r.Persisted = true
	return nil
}

func faceCount(fp fingerprint.Fingerprint) int {
	n := 0
	if fp.Front != nil {
		n++
	}
	if fp.Back != nil {
		n++
	}
	return n
}
