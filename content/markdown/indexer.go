package markdown

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"unicode/utf8"

	"docsearch-gateway/content"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// maxEmbedBytes corta o texto enviado ao embedder. O modelo trunca acima disso de qualquer forma.
const maxEmbedBytes = 8000

// Store é o que o Indexer precisa do armazenamento.
type Store interface {
	ContentHashes(ctx context.Context) (map[string]string, error)
	UpsertArticle(ctx context.Context, a *content.Article, embedding []float32) error
	DeleteArticle(ctx context.Context, slug string) error
}

// Stats resume uma execução do Indexer.
type Stats struct {
	Indexed int
	Skipped int
	Deleted int
}

type Indexer struct {
	Store    Store
	Embedder content.Embedder

	// Concurrency é o número de artigos embedados em paralelo. Padrão 4.
	Concurrency int
	Dimensions  int

	// Prune remove do armazenamento os slugs que não vieram em articles.
	Prune bool
	Force bool

	Logger *zap.Logger
}

func (ix *Indexer) Index(ctx context.Context, articles []*content.Article) (Stats, error) {
	log := ix.Logger
	if log == nil {
		log = zap.NewNop()
	}

	existing, err := ix.Store.ContentHashes(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("load content hashes: %w", err)
	}

	concurrency := ix.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	var indexed, skipped atomic.Int64
	seen := make(map[string]struct{}, len(articles))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, a := range articles {
		seen[a.Slug] = struct{}{}
		a.ContentHash = ContentHash(a)

		if !ix.Force && existing[a.Slug] == a.ContentHash {
			skipped.Add(1)
			continue
		}

		g.Go(func() error {
			vecs, err := ix.Embedder.Embed(gctx, []string{EmbeddingText(a)}, content.EmbeddingOptions{
				TaskType:   content.TaskRetrievalDocument,
				Dimensions: ix.Dimensions,
			})
			if err != nil {
				return fmt.Errorf("embed %s: %w", a.Slug, err)
			}
			if len(vecs) != 1 {
				return fmt.Errorf("embed %s: got %d vectors", a.Slug, len(vecs))
			}
			if err := ix.Store.UpsertArticle(gctx, a, vecs[0]); err != nil {
				return fmt.Errorf("upsert %s: %w", a.Slug, err)
			}
			indexed.Add(1)
			log.Debug("article indexed", zap.String("slug", a.Slug), zap.Int("dims", len(vecs[0])))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Stats{Indexed: int(indexed.Load()), Skipped: int(skipped.Load())}, err
	}

	stats := Stats{Indexed: int(indexed.Load()), Skipped: int(skipped.Load())}
	if !ix.Prune {
		return stats, nil
	}

	for slug := range existing {
		if _, ok := seen[slug]; ok {
			continue
		}
		if err := ix.Store.DeleteArticle(ctx, slug); err != nil && content.ErrorCode(err) != content.ENOTFOUND {
			return stats, fmt.Errorf("delete %s: %w", slug, err)
		}
		stats.Deleted++
		log.Debug("article removed", zap.String("slug", slug))
	}
	return stats, nil
}

// ContentHash é o xxhash dos campos que entram no embedding.
func ContentHash(a *content.Article) string {
	h := xxhash.New()
	h.WriteString(a.Title)
	h.WriteString("\x00")
	h.WriteString(a.Description)
	h.WriteString("\x00")
	h.WriteString(strings.Join(a.Tags, ","))
	h.WriteString("\x00")
	h.WriteString(a.Body)
	return strconv.FormatUint(h.Sum64(), 16)
}

// EmbeddingText junta título, descrição e corpo, cortado em maxEmbedBytes sem
// quebrar um caractere.
func EmbeddingText(a *content.Article) string {
	var sb strings.Builder
	sb.WriteString(a.Title)
	if a.Description != "" {
		sb.WriteString("\n\n")
		sb.WriteString(a.Description)
	}
	if a.Body != "" {
		sb.WriteString("\n\n")
		sb.WriteString(a.Body)
	}
	s := sb.String()
	if len(s) <= maxEmbedBytes {
		return s
	}
	cut := maxEmbedBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
