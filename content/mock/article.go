package mock

import (
	"context"

	"docsearch-gateway/content"
)

var _ content.ArticleService = (*ArticleService)(nil)

// ArticleService é um mock de content.ArticleService.
type ArticleService struct {
	FindArticlesFn         func(ctx context.Context) ([]*content.Article, error)
	FindArticleBySlugFn    func(ctx context.Context, slug string) (*content.Article, error)
	FindArticlesByFolderFn func(ctx context.Context, folder string) ([]*content.Article, error)
	ListFoldersFn          func(ctx context.Context) ([]string, error)
	UpsertArticleFn        func(ctx context.Context, a *content.Article, embedding []float32) error
	DeleteArticleFn        func(ctx context.Context, slug string) error
}

func (s *ArticleService) FindArticles(ctx context.Context) ([]*content.Article, error) {
	return s.FindArticlesFn(ctx)
}

func (s *ArticleService) FindArticleBySlug(ctx context.Context, slug string) (*content.Article, error) {
	return s.FindArticleBySlugFn(ctx, slug)
}

func (s *ArticleService) FindArticlesByFolder(ctx context.Context, folder string) ([]*content.Article, error) {
	return s.FindArticlesByFolderFn(ctx, folder)
}

func (s *ArticleService) ListFolders(ctx context.Context) ([]string, error) {
	return s.ListFoldersFn(ctx)
}

func (s *ArticleService) UpsertArticle(ctx context.Context, a *content.Article, embedding []float32) error {
	return s.UpsertArticleFn(ctx, a, embedding)
}

func (s *ArticleService) DeleteArticle(ctx context.Context, slug string) error {
	return s.DeleteArticleFn(ctx, slug)
}
