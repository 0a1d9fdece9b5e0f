// Package service orchestrates the domain operations behind the HTTP API.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/ivrstand/itemindex/domain/index"
	"github.com/ivrstand/itemindex/domain/item"
)

// Defaults for the reconciliation engine.
const (
	// DefaultBatchSize is how many rows the source reader fetches per
	// cursor round trip.
	DefaultBatchSize = 10

	// DefaultScrollLimit bounds the single-shot scan of existing index
	// points. Corpora beyond this ceiling need a paginated scan instead.
	DefaultScrollLimit = 10000
)

// Stats reports what a sync pass changed.
type Stats struct {
	Embedded int
	Deleted  int
}

// Syncer reconciles the vector index against the relational source. One
// full resync runs at a time, gated by a non-blocking Guard; the diff step
// embeds only texts the index has not seen and sweeps points whose text no
// longer exists in the source.
type Syncer struct {
	source      item.Source
	embedder    index.Embedder
	store       index.Store
	guard       *Guard
	logger      *slog.Logger
	batchSize   int
	scrollLimit int
}

// SyncerOption configures a Syncer.
type SyncerOption func(*Syncer)

// WithBatchSize sets the source reader batch size.
func WithBatchSize(n int) SyncerOption {
	return func(s *Syncer) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithScrollLimit sets the bounded index scan size.
func WithScrollLimit(n int) SyncerOption {
	return func(s *Syncer) {
		if n > 0 {
			s.scrollLimit = n
		}
	}
}

// NewSyncer creates a Syncer.
func NewSyncer(source item.Source, embedder index.Embedder, store index.Store, logger *slog.Logger, opts ...SyncerOption) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Syncer{
		source:      source,
		embedder:    embedder,
		store:       store,
		guard:       NewGuard(),
		logger:      logger,
		batchSize:   DefaultBatchSize,
		scrollLimit: DefaultScrollLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Guard returns the gate serializing full resyncs.
func (s *Syncer) Guard() *Guard {
	return s.guard
}

// EnsureReady creates the collection if absent and runs one full
// synchronization pass. Called once at startup.
func (s *Syncer) EnsureReady(ctx context.Context) error {
	if err := s.store.EnsureCollection(ctx); err != nil {
		return fmt.Errorf("ensure collection: %w", err)
	}
	_, err := s.FullResync(ctx)
	return err
}

// FullResync streams the whole source, merges the batches into one snapshot
// and reconciles the index against it. A resync already in flight causes an
// immediate ErrSyncRunning; the caller retries later.
func (s *Syncer) FullResync(ctx context.Context) (Stats, error) {
	if !s.guard.TryAcquire() {
		return Stats{}, ErrSyncRunning
	}
	defer s.guard.Release()

	texts, err := s.source.Texts(ctx, s.batchSize)
	if err != nil {
		// A truncated source view is not fatal: reconcile whatever was
		// accumulated and let the next resync repair the rest.
		s.logger.Warn("source read failed, reconciling partial snapshot",
			slog.Int("texts", len(texts)),
			slog.String("error", err.Error()),
		)
	}

	return s.Sync(ctx, texts)
}

// Sync applies the minimal delta that makes the index contain exactly the
// given composed-text set. Texts already present keep their stored vectors;
// only unseen texts are embedded.
func (s *Syncer) Sync(ctx context.Context, texts map[string]int64) (Stats, error) {
	existing, err := s.store.PayloadTexts(ctx, s.scrollLimit)
	if err != nil {
		return Stats{}, fmt.Errorf("scan index payloads: %w", err)
	}

	var stats Stats

	stale := 0
	for text := range existing {
		if _, ok := texts[text]; !ok {
			stale++
		}
	}
	if stale > 0 {
		surviving := make([]string, 0, len(texts))
		for text := range texts {
			surviving = append(surviving, text)
		}
		if err := s.store.DeleteStale(ctx, surviving); err != nil {
			return stats, fmt.Errorf("delete stale points: %w", err)
		}
		stats.Deleted = stale
	}

	fresh := make([]string, 0, len(texts))
	for text := range texts {
		if _, ok := existing[text]; !ok {
			fresh = append(fresh, text)
		}
	}
	if len(fresh) > 0 {
		sort.Strings(fresh)

		vectors, err := s.embedder.Embed(ctx, fresh)
		if err != nil {
			return stats, fmt.Errorf("embed %d texts: %w", len(fresh), err)
		}
		if len(vectors) != len(fresh) {
			return stats, fmt.Errorf("embed returned %d vectors for %d texts", len(vectors), len(fresh))
		}

		points := make([]index.Point, len(fresh))
		for i, text := range fresh {
			points[i] = index.Point{ID: texts[text], Vector: vectors[i], Text: text}
		}
		if err := s.store.Upsert(ctx, points); err != nil {
			return stats, fmt.Errorf("upsert points: %w", err)
		}
		stats.Embedded = len(fresh)
	}

	s.logger.Info("sync complete",
		slog.Int("source_texts", len(texts)),
		slog.Int("embedded", stats.Embedded),
		slog.Int("deleted", stats.Deleted),
	)
	return stats, nil
}
