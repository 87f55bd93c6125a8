package mock

import (
	"context"

	"docsearch-gateway/content"
)

var _ content.Embedder = (*Embedder)(nil)

// Embedder é um mock de content.Embedder.
type Embedder struct {
	EmbedFn func(ctx context.Context, texts []string, opts content.EmbeddingOptions) ([][]float32, error)
}

func (e *Embedder) Embed(ctx context.Context, texts []string, opts content.EmbeddingOptions) ([][]float32, error) {
	return e.EmbedFn(ctx, texts, opts)
}
