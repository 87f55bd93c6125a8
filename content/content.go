// Package content define o domínio da documentação: artigos, as consultas que o
// site faz sobre eles e o contrato da busca semântica.
//
// As implementações ficam em subpacotes com o nome da dependência principal
// (sqlite/, gemini/, markdown/).
//
// A busca em si é delegada: o handler HTTP só conhece SearchService.
package content

import (
	"context"
	"time"
)

// Article é uma página markdown indexada.
type Article struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Folder      string    `json:"folder"`
	Tags        []string  `json:"tags"`
	Description string    `json:"description,omitempty"`
	Body        string    `json:"body,omitempty"`
	ContentHash string    `json:"contentHash,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Validate retorna EINVALID se faltar slug ou título.
func (a *Article) Validate() error {
	if a.Slug == "" {
		return Errorf(EINVALID, "article slug required")
	}
	if a.Title == "" {
		return Errorf(EINVALID, "article title required")
	}
	return nil
}

// ArticleService são as consultas de conteúdo do site.
type ArticleService interface {
	// FindArticles retorna todos os artigos, por pasta e depois slug.
	FindArticles(ctx context.Context) ([]*Article, error)

	// FindArticleBySlug retorna ENOTFOUND se o slug não existir.
	FindArticleBySlug(ctx context.Context, slug string) (*Article, error)

	// FindArticlesByFolder retorna os artigos da pasta, por slug.
	FindArticlesByFolder(ctx context.Context, folder string) ([]*Article, error)

	// ListFolders retorna as pastas distintas (não vazias), ordenadas.
	ListFolders(ctx context.Context) ([]string, error)

	// UpsertArticle insere ou substitui o artigo (chave: slug) junto com o embedding.
	UpsertArticle(ctx context.Context, a *Article, embedding []float32) error

	// DeleteArticle remove pelo slug. Retorna ENOTFOUND se não existir.
	DeleteArticle(ctx context.Context, slug string) error
}

// TaskType diz ao modelo de embedding como o vetor será usado.
type TaskType string

const (
	TaskRetrievalQuery    TaskType = "RETRIEVAL_QUERY"
	TaskRetrievalDocument TaskType = "RETRIEVAL_DOCUMENT"
)

type EmbeddingOptions struct {
	TaskType   TaskType `json:"taskType,omitempty"`
	Dimensions int      `json:"dimensions,omitempty"`
}

// Embedder gera um vetor por texto, na mesma ordem.
type Embedder interface {
	Embed(ctx context.Context, texts []string, opts EmbeddingOptions) ([][]float32, error)
}

type SearchOptions struct {
	Limit     int              `json:"limit"`
	Embedding EmbeddingOptions `json:"embeddingOptions"`
}

// SearchResult é um resultado ranqueado. Menor distância = mais próximo.
type SearchResult struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Slug     string   `json:"slug"`
	Folder   string   `json:"folder"`
	Tags     []string `json:"tags"`
	Distance float64  `json:"distance"`
}

// SearchService é a busca semântica (colaborador externo do handler).
type SearchService interface {
	Search(ctx context.Context, query string, opts SearchOptions) ([]SearchResult, error)
}
