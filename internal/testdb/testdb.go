// Package testdb provides a shared test database helper for fast,
// realistic testing against an in-memory SQLite database.
package testdb

import (
	"context"
	"testing"

	"github.com/ivrstand/itemindex/infrastructure/persistence"
	"github.com/ivrstand/itemindex/internal/database"
)

// New creates an in-memory SQLite database with the item schema applied.
// The database is automatically closed when the test finishes.
func New(t *testing.T) database.Database {
	t.Helper()
	ctx := context.Background()
	db, err := database.NewDatabase(ctx, "sqlite:///:memory:")
	if err != nil {
		t.Fatalf("testdb.New: open database: %v", err)
	}
	err = db.Session(ctx).AutoMigrate(
		&persistence.CategoryModel{},
		&persistence.ItemModel{},
		&persistence.ItemKeywordModel{},
	)
	if err != nil {
		_ = db.Close()
		t.Fatalf("testdb.New: auto migrate: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}
