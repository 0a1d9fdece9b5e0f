package service

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSyncer(source *fakeSource, embedder *fakeEmbedder, store *fakeStore, opts ...SyncerOption) *Syncer {
	return NewSyncer(source, embedder, store, slog.Default(), opts...)
}

func TestSyncer_Convergence(t *testing.T) {
	source := &fakeSource{texts: map[string]int64{"alpha": 1, "beta": 2}}
	embedder := newFakeEmbedder()
	store := newFakeStore()

	stats, err := newTestSyncer(source, embedder, store).FullResync(t.Context())
	require.NoError(t, err)

	assert.Equal(t, Stats{Embedded: 2}, stats)
	assert.Equal(t, map[string]int64{"alpha": 1, "beta": 2}, store.texts())
	assert.Equal(t, []string{"alpha", "beta"}, embedder.calls(), "fresh texts are embedded in deterministic order")
}

func TestSyncer_Idempotence(t *testing.T) {
	source := &fakeSource{texts: map[string]int64{"alpha": 1, "beta": 2}}
	embedder := newFakeEmbedder()
	store := newFakeStore()
	syncer := newTestSyncer(source, embedder, store)

	_, err := syncer.FullResync(t.Context())
	require.NoError(t, err)
	before := store.texts()

	stats, err := syncer.FullResync(t.Context())
	require.NoError(t, err)

	assert.Equal(t, Stats{}, stats, "unchanged source must embed and delete nothing")
	assert.Equal(t, before, store.texts())
	assert.Len(t, embedder.calls(), 2, "second run must not re-embed")
}

func TestSyncer_MinimalRecomputation(t *testing.T) {
	source := &fakeSource{texts: map[string]int64{"A": 1, "B": 2}}
	embedder := newFakeEmbedder()
	store := newFakeStore()
	syncer := newTestSyncer(source, embedder, store)

	_, err := syncer.FullResync(t.Context())
	require.NoError(t, err)
	bVector := store.vector(2)

	source.texts = map[string]int64{"B": 2, "C": 3}
	stats, err := syncer.FullResync(t.Context())
	require.NoError(t, err)

	assert.Equal(t, Stats{Embedded: 1, Deleted: 1}, stats)
	assert.Equal(t, map[string]int64{"B": 2, "C": 3}, store.texts())
	assert.Equal(t, []string{"A", "B", "C"}, embedder.calls(), "only C is embedded on the second pass")
	assert.Equal(t, bVector, store.vector(2), "B's vector is left untouched")
}

func TestSyncer_StaleSweepDeletesExactlyStale(t *testing.T) {
	source := &fakeSource{texts: map[string]int64{"A": 1, "B": 2, "C": 3}}
	embedder := newFakeEmbedder()
	store := newFakeStore()
	syncer := newTestSyncer(source, embedder, store)

	_, err := syncer.FullResync(t.Context())
	require.NoError(t, err)

	source.texts = map[string]int64{"B": 2}
	_, err = syncer.FullResync(t.Context())
	require.NoError(t, err)

	require.Len(t, store.surviving, 1)
	assert.ElementsMatch(t, []string{"B"}, store.surviving[0], "the sweep filter carries the surviving set")
	assert.Equal(t, map[string]int64{"B": 2}, store.texts(), "valid points survive the sweep")
}

func TestSyncer_EmptySourceRemovesAll(t *testing.T) {
	source := &fakeSource{texts: map[string]int64{"A": 1, "B": 2}}
	embedder := newFakeEmbedder()
	store := newFakeStore()
	syncer := newTestSyncer(source, embedder, store)

	_, err := syncer.FullResync(t.Context())
	require.NoError(t, err)

	source.texts = map[string]int64{}
	stats, err := syncer.FullResync(t.Context())
	require.NoError(t, err)

	assert.Equal(t, Stats{Deleted: 2}, stats)
	assert.Empty(t, store.texts())
}

func TestSyncer_NoSweepOnFirstFill(t *testing.T) {
	source := &fakeSource{texts: map[string]int64{"A": 1}}
	store := newFakeStore()

	_, err := newTestSyncer(source, newFakeEmbedder(), store).FullResync(t.Context())
	require.NoError(t, err)
	assert.Zero(t, store.staleSweeps, "an empty index has nothing to sweep")
}

func TestSyncer_PartialSnapshot(t *testing.T) {
	source := &fakeSource{
		texts: map[string]int64{"A": 1},
		err:   errors.New("connection reset"),
	}
	store := newFakeStore()

	stats, err := newTestSyncer(source, newFakeEmbedder(), store).FullResync(t.Context())
	require.NoError(t, err, "a truncated source view is reconciled, not fatal")
	assert.Equal(t, Stats{Embedded: 1}, stats)
	assert.Equal(t, map[string]int64{"A": 1}, store.texts())
}

func TestSyncer_Contention(t *testing.T) {
	source := &fakeSource{texts: map[string]int64{"A": 1}}
	syncer := newTestSyncer(source, newFakeEmbedder(), newFakeStore())

	require.True(t, syncer.Guard().TryAcquire())
	defer syncer.Guard().Release()

	_, err := syncer.FullResync(t.Context())
	assert.ErrorIs(t, err, ErrSyncRunning)
}

func TestSyncer_EmbedFailurePropagates(t *testing.T) {
	source := &fakeSource{texts: map[string]int64{"A": 1}}
	embedder := newFakeEmbedder()
	embedder.err = errors.New("model unavailable")
	store := newFakeStore()
	syncer := newTestSyncer(source, embedder, store)

	_, err := syncer.FullResync(t.Context())
	require.Error(t, err)
	assert.Empty(t, store.texts(), "nothing is upserted when embedding fails")

	// The guard must be released on the failure path.
	embedder.err = nil
	_, err = syncer.FullResync(t.Context())
	assert.NoError(t, err)
}

func TestSyncer_EnsureReady(t *testing.T) {
	text := "chair blue  Furniture a blue chair"
	source := &fakeSource{texts: map[string]int64{text: 101}}
	embedder := newFakeEmbedder()
	store := newFakeStore()
	syncer := newTestSyncer(source, embedder, store)

	require.NoError(t, syncer.EnsureReady(t.Context()))
	assert.Equal(t, 1, store.ensured)
	assert.Equal(t, map[string]int64{text: 101}, store.texts())

	// End to end: a retrieval against the freshly filled index finds the item.
	retrieval := NewRetrieval(embedder, store, slog.Default())
	ids, err := retrieval.Retrieve(t.Context(), "blue chair")
	require.NoError(t, err)
	assert.Equal(t, []int64{101}, ids)
}
