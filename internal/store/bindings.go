package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cardscan/internal/fingerprint"
)

// LookupBinding resolves a fingerprint key to its item id.
func (s *Store) LookupBinding(ctx context.Context, key string) (string, bool, error) {
	var itemID string
	err := s.db.QueryRowContext(ctx,
		"SELECT item_id FROM identity_bindings WHERE fingerprint_key = ?",
		fingerprint.NormalizeKey(key),
	).Scan(&itemID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("lookup binding: %w", err)
	}
	return itemID, true, nil
}

// Bind associates key with itemID. A key that is already bound keeps its
// existing item; the effective item id is returned either way.
func (s *Store) Bind(ctx context.Context, key, itemID string) (string, error) {
	key = fingerprint.NormalizeKey(key)
	if key == "" || itemID == "" {
		return "", errors.New("bind: key and item id are required")
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO identity_bindings (fingerprint_key, item_id, created_at)
         VALUES (?, ?, ?)
         ON CONFLICT(fingerprint_key) DO NOTHING`,
		key, itemID, formatTime(time.Now()),
	); err != nil {
		return "", fmt.Errorf("insert binding: %w", err)
	}
	effective, _, err := s.LookupBinding(ctx, key)
	if err != nil {
		return "", err
	}
	return effective, nil
}

// ListBindings returns bindings ordered by creation time. A non-empty itemID
// restricts the result to that item.
func (s *Store) ListBindings(ctx context.Context, itemID string) ([]Binding, error) {
	query := "SELECT fingerprint_key, item_id, created_at FROM identity_bindings"
	var args []any
	if itemID != "" {
		query += " WHERE item_id = ?"
		args = append(args, itemID)
	}
	query += " ORDER BY created_at, fingerprint_key"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bindings: %w", err)
	}
	defer rows.Close()

	var out []Binding
	for rows.Next() {
		var b Binding
		var created string
		if err := rows.Scan(&b.Key, &b.ItemID, &created); err != nil {
			return nil, fmt.Errorf("scan binding: %w", err)
		}
		b.CreatedAt = parseTime(created)
		out = append(out, b)
	}
	return out, rows.Err()
}

// RemoveBinding deletes the binding for key.
func (s *Store) RemoveBinding(ctx context.Context, key string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM identity_bindings WHERE fingerprint_key = ?", fingerprint.NormalizeKey(key))
	if err != nil {
		return fmt.Errorf("remove binding: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("binding %s: %w", key, ErrNotFound)
	}
	return nil
}

// ClearBindings deletes every binding and reports how many were removed.
func (s *Store) ClearBindings(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM identity_bindings")
	if err != nil {
		return 0, fmt.Errorf("clear bindings: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clear bindings rows: %w", err)
	}
	return n, nil
}
