package service

import (
	"context"
	"sync"

	"github.com/ivrstand/itemindex/domain/index"
)

// fakeSource serves a fixed snapshot, optionally truncated by an error.
type fakeSource struct {
	texts map[string]int64
	err   error
}

func (f *fakeSource) Texts(_ context.Context, _ int) (map[string]int64, error) {
	out := make(map[string]int64, len(f.texts))
	for k, v := range f.texts {
		out[k] = v
	}
	return out, f.err
}

// fakeEmbedder returns a fixed unit vector per call and records every text
// it was asked to embed, in order.
type fakeEmbedder struct {
	mu       sync.Mutex
	embedded []string
	vec      []float32
	err      error
}

func newFakeEmbedder() *fakeEmbedder {
	return &fakeEmbedder{vec: []float32{1, 0, 0}}
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	f.embedded = append(f.embedded, texts...)
	f.mu.Unlock()

	out := make([][]float32, len(texts))
	for i := range texts {
		v := make([]float32, len(f.vec))
		copy(v, f.vec)
		out[i] = v
	}
	return out, nil
}

func (f *fakeEmbedder) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.embedded))
	copy(out, f.embedded)
	return out
}

// fakeStore models the vector index contract in memory: points keyed by id,
// payload-text scans, the surviving-set stale sweep and dot-product search.
type fakeStore struct {
	mu               sync.Mutex
	points           map[int64]index.Point
	ensured          int
	upsertBatches    int
	staleSweeps      int
	surviving        [][]string
	payloadTextsErr  error
	upsertErr        error
	deleteStaleErr   error
	ensureCollection error
}

func newFakeStore() *fakeStore {
	return &fakeStore{points: map[int64]index.Point{}}
}

func (f *fakeStore) EnsureCollection(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ensureCollection != nil {
		return f.ensureCollection
	}
	f.ensured++
	return nil
}

func (f *fakeStore) PayloadTexts(_ context.Context, limit int) (map[string]struct{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.payloadTextsErr != nil {
		return nil, f.payloadTextsErr
	}
	out := make(map[string]struct{}, len(f.points))
	for _, p := range f.points {
		if len(out) == limit {
			break
		}
		out[p.Text] = struct{}{}
	}
	return out, nil
}

func (f *fakeStore) Upsert(_ context.Context, points []index.Point) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upsertBatches++
	for _, p := range points {
		f.points[p.ID] = p
	}
	return nil
}

func (f *fakeStore) DeleteStale(_ context.Context, surviving []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteStaleErr != nil {
		return f.deleteStaleErr
	}
	f.staleSweeps++
	f.surviving = append(f.surviving, surviving)

	keep := make(map[string]struct{}, len(surviving))
	for _, t := range surviving {
		keep[t] = struct{}{}
	}
	for id, p := range f.points {
		if _, ok := keep[p.Text]; !ok {
			delete(f.points, id)
		}
	}
	return nil
}

func (f *fakeStore) DeleteByText(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, p := range f.points {
		if p.Text == text {
			delete(f.points, id)
		}
	}
	return nil
}

func (f *fakeStore) Search(_ context.Context, vector []float32, topK int) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	type scored struct {
		id    int64
		score float32
	}
	ranked := make([]scored, 0, len(f.points))
	for id, p := range f.points {
		var dot float32
		for i := range vector {
			if i < len(p.Vector) {
				dot += vector[i] * p.Vector[i]
			}
		}
		ranked = append(ranked, scored{id: id, score: dot})
	}
	for i := range ranked {
		for j := i + 1; j < len(ranked); j++ {
			if ranked[j].score > ranked[i].score {
				ranked[i], ranked[j] = ranked[j], ranked[i]
			}
		}
	}
	if len(ranked) > topK {
		ranked = ranked[:topK]
	}
	ids := make([]int64, len(ranked))
	for i, s := range ranked {
		ids[i] = s.id
	}
	return ids, nil
}

func (f *fakeStore) texts() map[string]int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]int64, len(f.points))
	for id, p := range f.points {
		out[p.Text] = id
	}
	return out
}

func (f *fakeStore) vector(id int64) []float32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.points[id].Vector
}
