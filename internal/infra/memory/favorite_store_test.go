package memory

import (
	"context"
	"testing"
)

func TestFavoriteStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewFavoriteStore()

	for _, code := range []string{"KE", "BE", "BE"} {
		if err := store.Insert(ctx, "u1", code); err != nil {
			t.Fatalf("insert %s: %v", code, err)
		}
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

	if other, _ := store.ListCodes(ctx, "u2"); len(other) != 0 {
		t.Fatalf("expected no codes for other user, got %v", other)
	}
}
