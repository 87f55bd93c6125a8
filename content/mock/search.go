package mock

import (
	"context"

	"docsearch-gateway/content"
)

var _ content.SearchService = (*SearchService)(nil)

// SearchService é um mock de content.SearchService.
type SearchService struct {
	SearchFn func(ctx context.Context, query string, opts content.SearchOptions) ([]content.SearchResult, error)
}

func (s *SearchService) Search(ctx context.Context, query string, opts content.SearchOptions) ([]content.SearchResult, error) {
	return s.SearchFn(ctx, query, opts)
}
