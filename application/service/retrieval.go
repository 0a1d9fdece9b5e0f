package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ivrstand/itemindex/domain/index"
)

// DefaultTopK is the number of record ids a retrieval returns.
const DefaultTopK = 4

// Retrieval embeds queries and serves nearest-neighbor lookups, plus the
// single-point add/delete operations. These paths are not gated by the sync
// guard and may interleave with a running resync.
type Retrieval struct {
	embedder index.Embedder
	store    index.Store
	logger   *slog.Logger
	topK     int
}

// RetrievalOption configures a Retrieval.
type RetrievalOption func(*Retrieval)

// WithTopK sets the default result count.
func WithTopK(k int) RetrievalOption {
	return func(r *Retrieval) {
		if k > 0 {
			r.topK = k
		}
	}
}

// NewRetrieval creates a Retrieval.
func NewRetrieval(embedder index.Embedder, store index.Store, logger *slog.Logger, opts ...RetrievalOption) *Retrieval {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Retrieval{
		embedder: embedder,
		store:    store,
		logger:   logger,
		topK:     DefaultTopK,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Retrieve embeds the query as a one-element batch and returns the ids of
// the most similar points, best first.
func (r *Retrieval) Retrieve(ctx context.Context, query string) ([]int64, error) {
	vectors, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embed returned %d vectors for one query", len(vectors))
	}

	ids, err := r.store.Search(ctx, vectors[0], r.topK)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	r.logger.Debug("retrieved", slog.String("query", query), slog.Int("results", len(ids)))
	return ids, nil
}

// Add embeds a single text and upserts one point for it. Both text and id
// are required.
func (r *Retrieval) Add(ctx context.Context, text string, id int64) error {
	if text == "" || id == 0 {
		return fmt.Errorf("%w: text and id are required", ErrInvalidInput)
	}

	vectors, err := r.embedder.Embed(ctx, []string{text})
	if err != nil {
		return fmt.Errorf("embed text: %w", err)
	}
	if len(vectors) != 1 {
		return fmt.Errorf("embed returned %d vectors for one text", len(vectors))
	}

	point := index.Point{ID: id, Vector: vectors[0], Text: text}
	if err := r.store.Upsert(ctx, []index.Point{point}); err != nil {
		return fmt.Errorf("upsert point: %w", err)
	}
	return nil
}

// DeleteByText removes every point whose payload text exactly equals text.
func (r *Retrieval) DeleteByText(ctx context.Context, text string) error {
	if err := r.store.DeleteByText(ctx, text); err != nil {
		return fmt.Errorf("delete by text: %w", err)
	}
	return nil
}
