package credential

import (
	"context"
	"path/filepath"
	"testing"

	"focusbuddy/internal/db"
	"focusbuddy/internal/db/migrate"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	sqlDB, err := db.Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := migrate.Run(sqlDB, "up"); err != nil {
		t.Fatalf("migrate up: %v", err)
	}
	return NewSQLiteStore(sqlDB)
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	tok, err := store.Token(ctx)
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if tok != "" {
		t.Errorf("Token = %q, want empty before SetToken", tok)
	}

	if err := store.SetToken(ctx, "tok-1"); err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	tok, err = store.Token(ctx)
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if tok != "tok-1" {
		t.Errorf("Token = %q, want %q", tok, "tok-1")
	}
}

func TestSQLiteStore_SetTokenOverwrites(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	if err := store.SetToken(ctx, "old"); err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	if err := store.SetToken(ctx, "new"); err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	tok, _ := store.Token(ctx)
	if tok != "new" {
		t.Errorf("Token = %q, want %q", tok, "new")
	}
}

func TestSQLiteStore_ClearReportsPresence(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	cleared, err := store.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if cleared {
		t.Error("Clear on empty store should report false")
	}

	if err := store.SetToken(ctx, "tok"); err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	cleared, err = store.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if !cleared {
		t.Error("Clear should report true when a credential was present")
	}

	cleared, err = store.Clear(ctx)
	if err != nil {
		t.Fatalf("second Clear: %v", err)
	}
	if cleared {
		t.Error("second Clear should report false")
	}
	tok, _ := store.Token(ctx)
	if tok != "" {
		t.Errorf("Token = %q, want empty after Clear", tok)
	}
}

func TestMemoryStore_ClearIdempotent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.SetToken(ctx, "tok"); err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	cleared, _ := store.Clear(ctx)
	if !cleared {
		t.Error("first Clear should report true")
	}
	cleared, _ = store.Clear(ctx)
	if cleared {
		t.Error("second Clear should report false")
	}
}
