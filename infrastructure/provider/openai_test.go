package provider

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivrstand/itemindex/domain/index"
)

type embeddingData struct {
	Index     int       `json:"index"`
	Embedding []float32 `json:"embedding"`
}

type embeddingResponse struct {
	Data []embeddingData `json:"data"`
}

func fakeEmbeddingServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		resp := embeddingResponse{}
		for i := range req.Input {
			// Deliberately not unit norm; the provider must normalize.
			vec := make([]float32, index.Dimension)
			vec[i%index.Dimension] = 3
			vec[(i+1)%index.Dimension] = 4
			resp.Data = append(resp.Data, embeddingData{Index: i, Embedding: vec})
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestOpenAIEmbedder_Embed(t *testing.T) {
	server := fakeEmbeddingServer(t)
	defer server.Close()

	embedder := NewOpenAIEmbedder(OpenAIConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "multilingual-e5-large",
	})

	vectors, err := embedder.Embed(t.Context(), []string{"first", "second", "third"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)

	for i, v := range vectors {
		assert.Len(t, v, index.Dimension)
		assert.InDelta(t, 1.0, index.Norm(v), 1e-5, "vector %d must be unit norm", i)
	}

	// Alignment: each vector keeps its input position.
	assert.InDelta(t, 0.6, float64(vectors[0][0]), 1e-5)
	assert.InDelta(t, 0.6, float64(vectors[1][1]), 1e-5)
}

func TestOpenAIEmbedder_EmptyInput(t *testing.T) {
	embedder := NewOpenAIEmbedder(OpenAIConfig{APIKey: "k", Model: "m"})
	vectors, err := embedder.Embed(t.Context(), nil)
	require.NoError(t, err)
	assert.Empty(t, vectors)
}
