package internal

import (
	"context"
	"fmt"

	"github.com/philippgille/chromem-go"
)

// Embedder turns text into a fixed-length vector. Implementations talk
// to a locally hosted embedding server; failures are surfaced as plain
// errors and recovered by the callers (a record without an embedding is
// still a valid record).
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// ChromemEmbedder adapts a chromem-go embedding func to the Embedder
// interface. chromem ships clients for every OpenAI-compatible local
// server (ollama, llamafile, LocalAI), so no HTTP plumbing lives here.
type ChromemEmbedder struct {
	fn        chromem.EmbeddingFunc
	dimension int
}

// NewOllamaEmbedder embeds through a local ollama server.
func NewOllamaEmbedder(baseURL, model string, dimension int) *ChromemEmbedder {
	return &ChromemEmbedder{
		fn:        chromem.NewEmbeddingFuncOllama(model, baseURL),
		dimension: dimension,
	}
}

// NewOpenAICompatEmbedder embeds through any OpenAI-compatible
// /v1/embeddings endpoint.
func NewOpenAICompatEmbedder(baseURL, apiKey, model string, dimension int) *ChromemEmbedder {
	return &ChromemEmbedder{
		fn:        chromem.NewEmbeddingFuncOpenAICompat(baseURL, apiKey, model, nil),
		dimension: dimension,
	}
}

func (e *ChromemEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := e.fn(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed text: %w", err)
	}
	if e.dimension > 0 && len(vec) != e.dimension {
		return nil, fmt.Errorf("embed text: expected dimension %d, got %d", e.dimension, len(vec))
	}
	return vec, nil
}

func (e *ChromemEmbedder) Dimension() int {
	return e.dimension
}
