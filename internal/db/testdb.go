package db

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// TestingT is the subset of testing.TB (and GinkgoT) NewTestDB needs.
type TestingT interface {
	Helper()
	Fatalf(format string, args ...any)
	Cleanup(func())
}

// NewTestDB creates a fresh in-memory SQLite database with all migrations applied.
func NewTestDB(t TestingT) *sqlx.DB {
	t.Helper()

	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}

	if err := Migrate(context.Background(), db); err != nil {
		db.Close()
		t.Fatalf("migrating test database: %v", err)
	}

	t.Cleanup(func() { db.Close() })

	return db
}
