package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"docsearch-gateway/content"

	"github.com/google/uuid"
)

var _ content.ArticleService = (*ArticleService)(nil)

// ArticleService implementa content.ArticleService sobre SQLite.
type ArticleService struct {
	db *DB
}

func NewArticleService(db *DB) *ArticleService {
	return &ArticleService{db: db}
}

const articleColumns = `id, slug, title, folder, tags, description, body, content_hash, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (*content.Article, error) {
	var a content.Article
	var tags, updatedAt string
	if err := row.Scan(&a.ID, &a.Slug, &a.Title, &a.Folder, &tags, &a.Description, &a.Body, &a.ContentHash, &updatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tags), &a.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags of %q: %w", a.Slug, err)
	}
	t, err := time.Parse(time.RFC3339, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	a.UpdatedAt = t
	return &a, nil
}

func (s *ArticleService) queryArticles(ctx context.Context, query string, args ...any) ([]*content.Article, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	articles := []*content.Article{}
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

func (s *ArticleService) FindArticles(ctx context.Context) ([]*content.Article, error) {
	return s.queryArticles(ctx, `SELECT `+articleColumns+` FROM articles ORDER BY folder, slug`)
}

func (s *ArticleService) FindArticleBySlug(ctx context.Context, slug string) (*content.Article, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+articleColumns+` FROM articles WHERE slug = ?`, slug)
	a, err := scanArticle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, content.Errorf(content.ENOTFOUND, "article %q not found", slug)
	}
	return a, err
}

func (s *ArticleService) FindArticlesByFolder(ctx context.Context, folder string) ([]*content.Article, error) {
	return s.queryArticles(ctx, `SELECT `+articleColumns+` FROM articles WHERE folder = ? ORDER BY slug`, folder)
}

func (s *ArticleService) ListFolders(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT folder FROM articles WHERE folder != '' ORDER BY folder`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	folders := []string{}
	for rows.Next() {
		var f string
		if err := rows.Scan(&f); err != nil {
			return nil, err
		}
		folders = append(folders, f)
	}
	return folders, rows.Err()
}

// ContentHashes retorna slug -> hash, usado pelo indexador para pular o que não mudou.
func (s *ArticleService) ContentHashes(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT slug, content_hash FROM articles`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var slug, hash string
		if err := rows.Scan(&slug, &hash); err != nil {
			return nil, err
		}
		out[slug] = hash
	}
	return out, rows.Err()
}

func (s *ArticleService) UpsertArticle(ctx context.Context, a *content.Article, embedding []float32) error {
	if err := a.Validate(); err != nil {
		return err
	}

	var existing string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM articles WHERE slug = ?`, a.Slug).Scan(&existing)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if a.ID == "" {
			a.ID = uuid.New().String()
		}
	case err != nil:
		return err
	default:
		a.ID = existing
	}

	if a.Tags == nil {
		a.Tags = []string{}
	}
	tags, err := json.Marshal(a.Tags)
	if err != nil {
		return err
	}
	a.UpdatedAt = time.Now().UTC().Truncate(time.Second)

	// Sem embedding grava NULL e o artigo fica fora da busca.
	var blob any
	if len(embedding) > 0 {
		blob = encodeEmbedding(embedding)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO articles (id, slug, title, folder, tags, description, body, content_hash, embedding, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(slug) DO UPDATE SET
			title = excluded.title,
			folder = excluded.folder,
			tags = excluded.tags,
			description = excluded.description,
			body = excluded.body,
			content_hash = excluded.content_hash,
			embedding = excluded.embedding,
			updated_at = excluded.updated_at
	`, a.ID, a.Slug, a.Title, a.Folder, string(tags), a.Description, a.Body, a.ContentHash,
		blob, a.UpdatedAt.Format(time.RFC3339))
	return err
}

func (s *ArticleService) DeleteArticle(ctx context.Context, slug string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM articles WHERE slug = ?`, slug)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return content.Errorf(content.ENOTFOUND, "article %q not found", slug)
	}
	return nil
}
