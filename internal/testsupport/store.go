package testsupport

import (
	"context"
	"testing"

	"cardscan/internal/config"
	"cardscan/internal/imagehash"
	"cardscan/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// InsertHashedScan records a scan for owner with the given face hashes.
func InsertHashedScan(t testing.TB, st *store.Store, owner, key string, front, back *imagehash.Pair) *store.Scan {
	t.Helper()

	scan := &store.Scan{
		Owner:          owner,
		Status:         store.StatusOK,
		Front:          front,
		Back:           back,
		FingerprintKey: key,
	}
	if err := st.InsertScan(context.Background(), scan); err != nil {
		t.Fatalf("store.InsertScan: %v", err)
	}
	return scan
}
