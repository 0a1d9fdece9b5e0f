// Package index defines the vector index and encoder contracts.
package index

import "context"

// Point is the index's stored unit: a record id, its embedding, and the
// composed text the embedding was computed from.
type Point struct {
	ID     int64
	Vector []float32
	Text   string
}

// Store is the capability contract of the external vector index.
type Store interface {
	// EnsureCollection creates the collection with the fixed dimensionality
	// and cosine distance if it does not exist. Idempotent; an existing
	// collection is never recreated.
	EnsureCollection(ctx context.Context) error

	// PayloadTexts returns the payload text of every point currently in the
	// index, bounded by limit (single-shot scroll, not paginated).
	PayloadTexts(ctx context.Context, limit int) (map[string]struct{}, error)

	// Upsert writes points and waits for the index to acknowledge
	// durability before returning.
	Upsert(ctx context.Context, points []Point) error

	// DeleteStale removes every point whose payload text is not one of the
	// surviving texts, in one bulk operation.
	DeleteStale(ctx context.Context, surviving []string) error

	// DeleteByText removes every point whose payload text exactly equals
	// text.
	DeleteByText(ctx context.Context, text string) error

	// Search returns the ids of the topK points nearest to vector,
	// most-similar first.
	Search(ctx context.Context, vector []float32, topK int) ([]int64, error)
}
