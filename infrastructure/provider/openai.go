package provider

import (
	"context"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/ivrstand/itemindex/domain/index"
)

// OpenAIEmbedder generates embeddings through an OpenAI-compatible
// embeddings endpoint. It is the remote alternative to the local ONNX
// encoder; the endpoint must serve a model with the fixed 1024
// dimensionality. Returned vectors are re-normalized so the unit-norm
// guarantee holds regardless of the upstream model.
type OpenAIEmbedder struct {
	client       *openai.Client
	model        string
	maxRetries   int
	initialDelay time.Duration
}

// OpenAIConfig holds configuration for the remote embedder.
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

// NewOpenAIEmbedder creates an OpenAIEmbedder from configuration.
func NewOpenAIEmbedder(cfg OpenAIConfig) *OpenAIEmbedder {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		clientConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = 3
	}

	return &OpenAIEmbedder{
		client:       openai.NewClientWithConfig(clientConfig),
		model:        cfg.Model,
		maxRetries:   maxRetries,
		initialDelay: 2 * time.Second,
	}
}

// Embed requests embeddings for all texts as one batch, retrying transient
// failures with exponential backoff.
func (p *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	var resp openai.EmbeddingResponse
	var err error

	delay := p.initialDelay
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		resp, err = p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: texts,
			Model: openai.EmbeddingModel(p.model),
		})
		if err == nil && len(resp.Data) == len(texts) {
			break
		}
		if err == nil {
			err = fmt.Errorf("embedding response has %d vectors for %d texts", len(resp.Data), len(texts))
		}
	}
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}

	vectors := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, fmt.Errorf("embedding response index %d out of range", d.Index)
		}
		if len(d.Embedding) != index.Dimension {
			return nil, fmt.Errorf("vector %d has dimension %d, want %d", d.Index, len(d.Embedding), index.Dimension)
		}
		vectors[d.Index] = index.Normalize(d.Embedding)
	}
	return vectors, nil
}

var _ index.Embedder = (*OpenAIEmbedder)(nil)
