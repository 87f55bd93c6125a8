package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"docsearch-gateway/content"
)

var _ content.SearchService = (*SearchService)(nil)

// SearchService embeda a consulta e compara com todos os embeddings guardados.
type SearchService struct {
	db       *DB
	embedder content.Embedder
}

func NewSearchService(db *DB, embedder content.Embedder) *SearchService {
	return &SearchService{db: db, embedder: embedder}
}

func (s *SearchService) Search(ctx context.Context, query string, opts content.SearchOptions) ([]content.SearchResult, error) {
	if query == "" {
		return nil, content.Errorf(content.EINVALID, "query required")
	}
	if opts.Limit <= 0 {
		return nil, content.Errorf(content.EINVALID, "limit must be positive")
	}

	eopts := opts.Embedding
	if eopts.TaskType == "" {
		eopts.TaskType = content.TaskRetrievalQuery
	}
	vecs, err := s.embedder.Embed(ctx, []string{query}, eopts)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vecs) != 1 {
		return nil, content.Errorf(content.EINTERNAL, "embedder returned %d vectors for 1 query", len(vecs))
	}
	q := vecs[0]

	rows, err := s.db.QueryContext(ctx, `SELECT id, title, slug, folder, tags, embedding FROM articles WHERE embedding IS NOT NULL`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []content.SearchResult{}
	for rows.Next() {
		var r content.SearchResult
		var tags string
		var blob []byte
		if err := rows.Scan(&r.ID, &r.Title, &r.Slug, &r.Folder, &tags, &blob); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(tags), &r.Tags); err != nil {
			return nil, fmt.Errorf("failed to decode tags of %q: %w", r.Slug, err)
		}
		emb, err := decodeEmbedding(blob)
		if err != nil {
			return nil, err
		}
		r.Distance = cosineDistance(q, emb)
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].Slug < results[j].Slug
	})
	if len(results) > opts.Limit {
		results = results[:opts.Limit]
	}
	return results, nil
}
