package migrate

import (
	"path/filepath"
	"testing"

	"focusbuddy/internal/db"
)

func TestRun_UpCreatesSchema(t *testing.T) {
	sqlDB, err := db.Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer sqlDB.Close()

	if err := Run(sqlDB, "up"); err != nil {
		t.Fatalf("Run up: %v", err)
	}

	var name string
	err = sqlDB.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='kv'`).Scan(&name)
	if err != nil {
		t.Fatalf("kv table missing after up: %v", err)
	}
}

func TestRun_UpIsIdempotent(t *testing.T) {
	sqlDB, err := db.Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer sqlDB.Close()

	if err := Run(sqlDB, "up"); err != nil {
		t.Fatalf("first up: %v", err)
	}
	if err := Run(sqlDB, "up"); err != nil {
		t.Fatalf("second up: %v", err)
	}
}

func TestRun_RejectsBadDirection(t *testing.T) {
	sqlDB, err := db.Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer sqlDB.Close()

	if err := Run(sqlDB, "sideways"); err == nil {
		t.Fatal("Run should reject an unknown direction")
	}
}
