// Package qdrant adapts the external Qdrant vector index to the
// domain index contract.
package qdrant

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/qdrant/go-client/qdrant"

	"github.com/ivrstand/itemindex/domain/index"
)

// payloadTextKey is the payload field holding the composed text.
const payloadTextKey = "text"

// Config holds connection and collection parameters.
type Config struct {
	Host       string
	Port       int
	Collection string
}

// Store implements index.Store against a Qdrant server.
type Store struct {
	client     *qdrant.Client
	collection string
	logger     *slog.Logger
}

// NewStore connects to Qdrant and returns a Store.
func NewStore(cfg Config, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: cfg.Host,
		Port: cfg.Port,
	})
	if err != nil {
		return nil, fmt.Errorf("connect qdrant %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	return &Store{
		client:     client,
		collection: cfg.Collection,
		logger:     logger,
	}, nil
}

// EnsureCollection creates the collection with the encoder dimensionality
// and cosine distance if it does not exist yet. An existing collection is
// left untouched; its schema is assumed stable.
func (s *Store) EnsureCollection(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("check collection %q: %w", s.collection, err)
	}
	if exists {
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(index.Dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("create collection %q: %w", s.collection, err)
	}

	s.logger.Info("collection created",
		slog.String("collection", s.collection),
		slog.Int("dimension", index.Dimension),
	)
	return nil
}

// PayloadTexts scans up to limit points and returns the set of their
// payload texts. Single-shot; corpora beyond the limit are not paged.
func (s *Store) PayloadTexts(ctx context.Context, limit int) (map[string]struct{}, error) {
	points, err := s.client.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: s.collection,
		Limit:          qdrant.PtrOf(uint32(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("scroll %q: %w", s.collection, err)
	}

	texts := make(map[string]struct{}, len(points))
	for _, p := range points {
		if v, ok := p.Payload[payloadTextKey]; ok {
			texts[v.GetStringValue()] = struct{}{}
		}
	}
	return texts, nil
}

// Upsert writes the points and waits for durability.
func (s *Store) Upsert(ctx context.Context, points []index.Point) error {
	structs := make([]*qdrant.PointStruct, len(points))
	for i, p := range points {
		structs[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDNum(uint64(p.ID)),
			Vectors: qdrant.NewVectors(p.Vector...),
			Payload: qdrant.NewValueMap(map[string]any{payloadTextKey: p.Text}),
		}
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         structs,
	})
	if err != nil {
		return fmt.Errorf("upsert %d points: %w", len(points), err)
	}
	return nil
}

// DeleteStale removes every point whose payload text is not one of the
// surviving texts, in a single filtered delete.
func (s *Store) DeleteStale(ctx context.Context, surviving []string) error {
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         qdrant.NewPointsSelectorFilter(staleFilter(surviving)),
	})
	if err != nil {
		return fmt.Errorf("delete stale points: %w", err)
	}
	return nil
}

// DeleteByText removes every point whose payload text equals text.
func (s *Store) DeleteByText(ctx context.Context, text string) error {
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         qdrant.NewPointsSelectorFilter(equalityFilter(text)),
	})
	if err != nil {
		return fmt.Errorf("delete by text: %w", err)
	}
	return nil
}

// Search returns the ids of the topK nearest points, best first.
func (s *Store) Search(ctx context.Context, vector []float32, topK int) ([]int64, error) {
	results, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(topK)),
	})
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", s.collection, err)
	}

	ids := make([]int64, len(results))
	for i, r := range results {
		ids[i] = int64(r.GetId().GetNum())
	}
	return ids, nil
}

// staleFilter selects points whose payload text matches none of the
// surviving texts. The keyword match is match-any, so the must_not keeps
// every survivor and selects exactly the stale remainder.
func staleFilter(surviving []string) *qdrant.Filter {
	return &qdrant.Filter{
		MustNot: []*qdrant.Condition{
			qdrant.NewMatchKeywords(payloadTextKey, surviving...),
		},
	}
}

// equalityFilter selects points whose payload text equals text exactly.
func equalityFilter(text string) *qdrant.Filter {
	return &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatchKeyword(payloadTextKey, text),
		},
	}
}

var _ index.Store = (*Store)(nil)
