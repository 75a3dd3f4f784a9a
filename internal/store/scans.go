package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"cardscan/internal/fingerprint"
	"cardscan/internal/imagehash"
)

const scanColumns = "id, owner, created_at, status, front_phash, front_dhash, back_phash, back_dhash, fingerprint_key, item_id, overall_tier, analysis_json"

// InsertScan persists scan, assigning an id and creation time when unset.
// A scan with the same id is replaced, which is how re-analysis is stored.
func (s *Store) InsertScan(ctx context.Context, scan *Scan) error {
	if scan.ID == "" {
		scan.ID = uuid.NewString()
	}
	if scan.CreatedAt.IsZero() {
		scan.CreatedAt = time.Now().UTC()
	}
	scan.Owner = NormalizeOwner(scan.Owner)

	frontP, frontD := pairColumns(scan.Front)
	backP, backD := pairColumns(scan.Back)
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO scans (`+scanColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		scan.ID,
		scan.Owner,
		formatTime(scan.CreatedAt),
		string(scan.Status),
		frontP, frontD,
		backP, backD,
		nullableString(scan.FingerprintKey),
		nullableString(scan.ItemID),
		nullableString(scan.OverallTier),
		nullableString(scan.AnalysisJSON),
	)
	if err != nil {
		return fmt.Errorf("insert scan: %w", err)
	}
	return nil
}

// SetScanItem records the physical item a scan was bound to.
func (s *Store) SetScanItem(ctx context.Context, scanID, itemID string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE scans SET item_id = ? WHERE id = ?", nullableString(itemID), scanID)
	if err != nil {
		return fmt.Errorf("update scan item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("scan %s: %w", scanID, ErrNotFound)
	}
	return nil
}

// GetScan fetches a scan by id.
func (s *Store) GetScan(ctx context.Context, id string) (*Scan, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+scanColumns+" FROM scans WHERE id = ?", id)
	scan, err := scanScan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("scan %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get scan %s: %w", id, err)
	}
	return scan, nil
}

// ListScans returns an owner's scans, newest first. An empty owner lists
// every scan.
func (s *Store) ListScans(ctx context.Context, owner string, limit int) ([]*Scan, error) {
	query := "SELECT " + scanColumns + " FROM scans"
	var args []any
	if owner != "" {
		query += " WHERE owner = ?"
		args = append(args, NormalizeOwner(owner))
	}
	query += " ORDER BY created_at DESC, id"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list scans: %w", err)
	}
	defer rows.Close()

	var out []*Scan
	for rows.Next() {
		scan, err := scanScan(rows)
		if err != nil {
			return nil, fmt.Errorf("list scans: %w", err)
		}
		out = append(out, scan)
	}
	return out, rows.Err()
}

// Candidates returns up to limit prior hashed scans for owner, newest first,
// excluding excludeID. Rows whose stored hashes cannot be parsed are an
// error rather than silently dropped.
func (s *Store) Candidates(ctx context.Context, owner, excludeID string, limit int) ([]fingerprint.Candidate, error) {
	query := "SELECT " + scanColumns + ` FROM scans
        WHERE owner = ? AND id != ? AND fingerprint_key IS NOT NULL
        ORDER BY created_at DESC, id`
	args := []any{NormalizeOwner(owner), excludeID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}
	defer rows.Close()

	var out []fingerprint.Candidate
	for rows.Next() {
		scan, err := scanScan(rows)
		if err != nil {
			return nil, fmt.Errorf("load candidate: %w", err)
		}
		out = append(out, fingerprint.Candidate{
			ID:          scan.ID,
			Key:         scan.FingerprintKey,
			Fingerprint: scan.Fingerprint(),
		})
	}
	return out, rows.Err()
}

func scanScan(scanner interface{ Scan(dest ...any) error }) (*Scan, error) {
	var (
		id, owner, createdRaw, status string
		frontP, frontD                sql.NullString
		backP, backD                  sql.NullString
		key, itemID, tier, analysis   sql.NullString
	)
	if err := scanner.Scan(&id, &owner, &createdRaw, &status,
		&frontP, &frontD, &backP, &backD,
		&key, &itemID, &tier, &analysis); err != nil {
		return nil, err
	}

	front, err := parsePairColumns(frontP, frontD)
	if err != nil {
		return nil, fmt.Errorf("scan %s front hashes: %w", id, err)
	}
	back, err := parsePairColumns(backP, backD)
	if err != nil {
		return nil, fmt.Errorf("scan %s back hashes: %w", id, err)
	}
	return &Scan{
		ID:             id,
		Owner:          owner,
		CreatedAt:      parseTime(createdRaw),
		Status:         Status(status),
		Front:          front,
		Back:           back,
		FingerprintKey: key.String,
		ItemID:         itemID.String,
		OverallTier:    tier.String,
		AnalysisJSON:   analysis.String,
	}, nil
}

func pairColumns(p *imagehash.Pair) (any, any) {
	if p == nil {
		return nil, nil
	}
	return p.PHash.String(), p.DHash.String()
}

func parsePairColumns(phash, dhash sql.NullString) (*imagehash.Pair, error) {
	if !phash.Valid && !dhash.Valid {
		return nil, nil
	}
	if !phash.Valid || !dhash.Valid {
		return nil, errors.New("incomplete hash pair")
	}
	p, err := imagehash.ParseHash(phash.String)
	if err != nil {
		return nil, err
	}
	d, err := imagehash.ParseHash(dhash.String)
	if err != nil {
		return nil, err
	}
	return &imagehash.Pair{PHash: p, DHash: d}, nil
}
