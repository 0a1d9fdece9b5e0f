package index

import "context"

// Dimension is the encoder output size. The collection is created with this
// dimensionality and every embedder implementation must produce it.
const Dimension = 1024

// Embedder converts texts into embedding vectors, one per input text and in
// input order. Vectors are unit L2 norm, so inner product and cosine
// similarity coincide in the index.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
