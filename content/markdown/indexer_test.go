package markdown_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"docsearch-gateway/content"
	"docsearch-gateway/content/markdown"
	"docsearch-gateway/content/mock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore guarda upserts em memória.
type memStore struct {
	mu       sync.Mutex
	hashes   map[string]string
	upserted map[string][]float32
	deleted  []string
}

func newMemStore(hashes map[string]string) *memStore {
	if hashes == nil {
		hashes = map[string]string{}
	}
	return &memStore{hashes: hashes, upserted: map[string][]float32{}}
}

func (s *memStore) ContentHashes(context.Context) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.hashes))
	for k, v := range s.hashes {
		out[k] = v
	}
	return out, nil
}

func (s *memStore) UpsertArticle(_ context.Context, a *content.Article, emb []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hashes[a.Slug] = a.ContentHash
	s.upserted[a.Slug] = emb
	return nil
}

func (s *memStore) DeleteArticle(_ context.Context, slug string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.hashes, slug)
	s.deleted = append(s.deleted, slug)
	return nil
}

func fixedEmbedder(calls *int, mu *sync.Mutex) *mock.Embedder {
	return &mock.Embedder{
		EmbedFn: func(_ context.Context, texts []string, opts content.EmbeddingOptions) ([][]float32, error) {
			mu.Lock()
			*calls++
			mu.Unlock()
			if opts.TaskType != content.TaskRetrievalDocument {
				return nil, errors.New("wrong task type")
			}
			out := make([][]float32, len(texts))
			for i := range texts {
				out[i] = []float32{1, 2, 3}
			}
			return out, nil
		},
	}
}

func articles() []*content.Article {
	return []*content.Article{
		{Slug: "a", Title: "A", Body: "alpha"},
		{Slug: "b", Title: "B", Body: "beta"},
		{Slug: "c", Title: "C", Body: "gamma"},
	}
}

func TestIndexer_IndexesAll(t *testing.T) {
	t.Parallel()

	var calls int
	var mu sync.Mutex
	store := newMemStore(nil)
	ix := &markdown.Indexer{Store: store, Embedder: fixedEmbedder(&calls, &mu), Concurrency: 2}

	stats, err := ix.Index(context.Background(), articles())
	require.NoError(t, err)
	assert.Equal(t, markdown.Stats{Indexed: 3}, stats)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []float32{1, 2, 3}, store.upserted["b"])
}

func TestIndexer_SkipsUnchanged(t *testing.T) {
	t.Parallel()

	arts := articles()
	store := newMemStore(map[string]string{
		"a": markdown.ContentHash(arts[0]),
		"b": "stale",
	})

	var calls int
	var mu sync.Mutex
	ix := &markdown.Indexer{Store: store, Embedder: fixedEmbedder(&calls, &mu)}

	stats, err := ix.Index(context.Background(), arts)
	require.NoError(t, err)
	assert.Equal(t, markdown.Stats{Indexed: 2, Skipped: 1}, stats)
	assert.NotContains(t, store.upserted, "a")
}

func TestIndexer_ForceReindexes(t *testing.T) {
	t.Parallel()

	arts := articles()
	store := newMemStore(map[string]string{"a": markdown.ContentHash(arts[0])})

	var calls int
	var mu sync.Mutex
	ix := &markdown.Indexer{Store: store, Embedder: fixedEmbedder(&calls, &mu), Force: true}

	stats, err := ix.Index(context.Background(), arts)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Indexed)
}

func TestIndexer_PrunesMissing(t *testing.T) {
	t.Parallel()

	store := newMemStore(map[string]string{"old": "h"})

	var calls int
	var mu sync.Mutex
	ix := &markdown.Indexer{Store: store, Embedder: fixedEmbedder(&calls, &mu), Prune: true}

	stats, err := ix.Index(context.Background(), articles())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Deleted)
	assert.Equal(t, []string{"old"}, store.deleted)
}

func TestIndexer_ReturnsEmbedderError(t *testing.T) {
	t.Parallel()

	ix := &markdown.Indexer{
		Store: newMemStore(nil),
		Embedder: &mock.Embedder{
			EmbedFn: func(context.Context, []string, content.EmbeddingOptions) ([][]float32, error) {
				return nil, errors.New("boom")
			},
		},
	}

	_, err := ix.Index(context.Background(), articles())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestContentHash_ChangesWithBody(t *testing.T) {
	t.Parallel()

	a := &content.Article{Title: "T", Body: "one"}
	b := &content.Article{Title: "T", Body: "two"}
	assert.NotEqual(t, markdown.ContentHash(a), markdown.ContentHash(b))
	assert.Equal(t, markdown.ContentHash(a), markdown.ContentHash(&content.Article{Title: "T", Body: "one"}))
}

func TestEmbeddingText_TruncatesOnRuneBoundary(t *testing.T) {
	t.Parallel()

	a := &content.Article{Title: "T", Body: strings.Repeat("é", 10000)}
	text := markdown.EmbeddingText(a)
	assert.LessOrEqual(t, len(text), 8000)
	assert.True(t, utf8.ValidString(text))
	assert.True(t, strings.HasPrefix(text, "T\n\n"))
}
