// Package gemini implementa content.Embedder com a API de embeddings do Google Gemini.
package gemini

import (
	"context"
	"fmt"

	"docsearch-gateway/content"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

const (
	DefaultModel = "gemini-embedding-001"

	// maxBatch é o máximo de textos por chamada aceito pela API.
	maxBatch = 100
)

var _ content.Embedder = (*Embedder)(nil)

// Embedder gera embeddings com o Gemini, respeitando um limite de chamadas por segundo.
type Embedder struct {
	client  *genai.Client
	model   string
	limiter *rate.Limiter
}

type Option func(*Embedder)

func WithModel(model string) Option {
	return func(e *Embedder) {
		if model != "" {
			e.model = model
		}
	}
}

// WithRate limita chamadas à API. rps <= 0 remove o limite.
func WithRate(rps float64) Option {
	return func(e *Embedder) {
		if rps <= 0 {
			e.limiter = nil
			return
		}
		e.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

func NewEmbedder(client *genai.Client, opts ...Option) *Embedder {
	e := &Embedder{
		client:  client,
		model:   DefaultModel,
		limiter: rate.NewLimiter(rate.Limit(5), 1),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Model retorna o modelo em uso.
func (e *Embedder) Model() string { return e.model }

func (e *Embedder) Embed(ctx context.Context, texts []string, opts content.EmbeddingOptions) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	for i, t := range texts {
		if t == "" {
			return nil, content.Errorf(content.EINVALID, "text %d is empty", i)
		}
	}
	if opts.Dimensions < 0 {
		return nil, content.Errorf(content.EINVALID, "dimensions must not be negative")
	}
	if e.client == nil {
		return nil, content.Errorf(content.EINTERNAL, "gemini client not configured")
	}

	config := BuildConfig(opts)
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxBatch {
		end := min(start+maxBatch, len(texts))

		if e.limiter != nil {
			if err := e.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		resp, err := e.client.Models.EmbedContent(ctx, e.model, BuildContents(texts[start:end]), config)
		if err != nil {
			return nil, fmt.Errorf("gemini embed: %w", err)
		}
		if resp == nil || len(resp.Embeddings) != end-start {
			return nil, content.Errorf(content.EINTERNAL, "gemini returned an unexpected number of embeddings")
		}
		for _, emb := range resp.Embeddings {
			if emb == nil || len(emb.Values) == 0 {
				return nil, content.Errorf(content.EINTERNAL, "gemini returned an empty embedding")
			}
			out = append(out, emb.Values)
		}
	}
	return out, nil
}

// BuildConfig monta o EmbedContentConfig. Dimensions zero deixa o padrão do modelo.
func BuildConfig(opts content.EmbeddingOptions) *genai.EmbedContentConfig {
	cfg := &genai.EmbedContentConfig{TaskType: string(opts.TaskType)}
	if opts.Dimensions > 0 {
		d := int32(opts.Dimensions)
		cfg.OutputDimensionality = &d
	}
	return cfg
}

func BuildContents(texts []string) []*genai.Content {
	contents := make([]*genai.Content, len(texts))
	for i, t := range texts {
		contents[i] = &genai.Content{Parts: []*genai.Part{{Text: t}}}
	}
	return contents
}
