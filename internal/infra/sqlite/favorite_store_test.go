package sqlite

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *FavoriteStore {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "favorites.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatalf("expected error for blank path")
	}
}

func TestFavoriteStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	for _, code := range []string{"KE", "BE", "BE"} {
		if err := store.Insert(ctx, "u1", code); err != nil {
			t.Fatalf("insert %s: %v", code, err)
		}
	}
	if err := store.Insert(ctx, "u2", "FR"); err != nil {
		t.Fatalf("insert: %v", err)
	}

	codes, err := store.ListCodes(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(codes) != 2 || codes[0] != "BE" || codes[1] != "KE" {
		t.Fatalf("expected [BE KE], got %v", codes)
	}

	if err := store.Delete(ctx, "u1", "BE"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete(ctx, "u1", "missing"); err != nil {
		t.Fatalf("delete missing: %v", err)
	}
	codes, _ = store.ListCodes(ctx, "u1")
	if len(codes) != 1 || codes[0] != "KE" {
		t.Fatalf("expected [KE], got %v", codes)
	}
}

func TestFavoriteStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "favorites.db")

	store, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := store.Insert(ctx, "u1", "BE"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	codes, err := reopened.ListCodes(ctx, "u1")
	if err != nil || len(codes) != 1 {
		t.Fatalf("expected persisted code, got %v err=%v", codes, err)
	}
}
