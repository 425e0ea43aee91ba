package db

import (
	"database/sql"
	"path/filepath"
	"testing"
)

// OpenTestSQLite opens a throwaway benchmark-run store in t.TempDir() and
// migrates it to the current schema. It returns the same write/read pool
// pair the server runs on, so repository tests exercise the split the way
// production does. Cleanup closes both pools.
func OpenTestSQLite(t *testing.T) (writeDB, readDB *sql.DB) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "querybench.sqlite")

	// 2 read connections is plenty for tests; the write pool is always 1.
	writeDB, readDB, err := OpenSQLitePair(path, 2)
	if err != nil {
		t.Fatalf("open run store: %v", err)
	}
	t.Cleanup(func() {
		_ = readDB.Close()
		_ = writeDB.Close()
	})

	if err := RunMigrations(writeDB); err != nil {
		t.Fatalf("migrate run store: %v", err)
	}

	return writeDB, readDB
}
