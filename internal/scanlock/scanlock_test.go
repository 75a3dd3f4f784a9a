package scanlock_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cardscan/internal/scanlock"
)

func TestTryAcquireIsExclusive(t *testing.T) {
	locker := scanlock.New(filepath.Join(t.TempDir(), "locks"))

	first, err := locker.TryAcquire("scan-1")
	if err != nil {
		t.Fatalf("TryAcquire: %v", err)
	}
	if _, err := os.Stat(first.Path()); err != nil {
		t.Fatalf("lock file missing: %v", err)
	}

	if _, err := locker.TryAcquire("scan-1"); !errors.Is(err, scanlock.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}

	other, err := locker.TryAcquire("scan-2")
	if err != nil {
		t.Fatalf("independent scan should lock: %v", err)
	}
	defer other.Release()

	if err := first.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	again, err := locker.TryAcquire("scan-1")
	if err != nil {
		t.Fatalf("reacquire after release: %v", err)
	}
	_ = again.Release()
}

func TestAcquireHonoursContext(t *testing.T) {
	locker := scanlock.New(t.TempDir())
	held, err := locker.TryAcquire("busy")
	if err != nil {
		t.Fatalf("TryAcquire: %v", err)
	}
	defer held.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if _, err := locker.Acquire(ctx, "busy", 10*time.Millisecond); !errors.Is(err, scanlock.ErrLocked) {
		t.Fatalf("expected ErrLocked after timeout, got %v", err)
	}
}

func TestLockPathSanitizesID(t *testing.T) {
	dir := t.TempDir()
	lock, err := scanlock.New(dir).TryAcquire("../owner/scan 1")
	if err != nil {
		t.Fatalf("TryAcquire: %v", err)
	}
	defer lock.Release()
	if filepath.Dir(lock.Path()) != dir {
		t.Fatalf("lock escaped its directory: %s", lock.Path())
	}
	if _, err := scanlock.New(dir).TryAcquire(""); err == nil {
		t.Fatal("expected empty id to be rejected")
	}
}
