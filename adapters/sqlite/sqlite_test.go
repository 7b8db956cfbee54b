package sqlite_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/artpar/metergate/adapters/sqlite"
)

func setupTestDB(t *testing.T) (*sqlite.DB, func()) {
	t.Helper()

	// Create temp file for test database
	f, err := os.CreateTemp("", "metergate-test-*.db")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	path := f.Name()
	f.Close()

	db, err := sqlite.Open(path)
	if err != nil {
		os.Remove(path)
		t.Fatalf("open database: %v", err)
	}

	if err := db.Migrate(context.Background()); err != nil {
		db.Close()
		os.Remove(path)
		t.Fatalf("migrate: %v", err)
	}

	cleanup := func() {
		db.Close()
		os.Remove(path)
	}

	return db, cleanup
}

func TestMigrate_Idempotent(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	// Running migrations again must be a no-op.
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestOpenWith_BusyTimeout(t *testing.T) {
	f, err := os.CreateTemp("", "metergate-test-*.db")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	path := f.Name()
	f.Close()
	defer os.Remove(path)

	db, err := sqlite.OpenWith(path, sqlite.Options{BusyTimeout: 100 * time.Millisecond})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	defer db.Close()

	var timeout int
	if err := db.QueryRow("PRAGMA busy_timeout").Scan(&timeout); err != nil {
		t.Fatalf("query busy_timeout: %v", err)
	}
	if timeout != 100 {
		t.Errorf("busy_timeout = %d, want 100", timeout)
	}
}
