package sqlite_test

import (
	"context"
	"testing"

	"docsearch-gateway/content"
	"docsearch-gateway/content/mock"
	"docsearch-gateway/content/sqlite"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openDB(t *testing.T) *sqlite.DB {
	t.Helper()

	db := sqlite.NewDB(":memory:")
	require.NoError(t, db.Open())
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDB_Open(t *testing.T) {
	t.Parallel()

	t.Run("creates schema on first open", func(t *testing.T) {
		t.Parallel()

		db := openDB(t)

		var n int
		err := db.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM articles").Scan(&n)
		require.NoError(t, err)
		assert.Equal(t, 0, n)
	})

	t.Run("returns error for invalid path", func(t *testing.T) {
		t.Parallel()

		db := sqlite.NewDB("/nonexistent/path/db.sqlite")
		require.Error(t, db.Open())
	})

	t.Run("enables WAL mode for file-based databases", func(t *testing.T) {
		t.Parallel()

		db := sqlite.NewDB(t.TempDir() + "/docs.db")
		require.NoError(t, db.Open())
		defer db.Close()

		var mode string
		err := db.QueryRowContext(context.Background(), "PRAGMA journal_mode").Scan(&mode)
		require.NoError(t, err)
		assert.Equal(t, "wal", mode)
	})
}

func TestArticleService_Upsert(t *testing.T) {
	t.Parallel()

	t.Run("inserts and finds by slug", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		svc := sqlite.NewArticleService(openDB(t))

		a := &content.Article{
			Slug:        "guides/install",
			Title:       "Install",
			Folder:      "guides",
			Tags:        []string{"setup", "cli"},
			Description: "How to install",
			Body:        "Run the installer.",
			ContentHash: "abc",
		}
		require.NoError(t, svc.UpsertArticle(ctx, a, []float32{1, 0}))
		assert.NotEmpty(t, a.ID)

		got, err := svc.FindArticleBySlug(ctx, "guides/install")
		require.NoError(t, err)
		assert.Equal(t, a.ID, got.ID)
		assert.Equal(t, "Install", got.Title)
		assert.Equal(t, []string{"setup", "cli"}, got.Tags)
		assert.Equal(t, "Run the installer.", got.Body)
		assert.Equal(t, "abc", got.ContentHash)
		assert.False(t, got.UpdatedAt.IsZero())
	})

	t.Run("replaces by slug and keeps the id", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		svc := sqlite.NewArticleService(openDB(t))

		first := &content.Article{Slug: "a", Title: "First"}
		require.NoError(t, svc.UpsertArticle(ctx, first, nil))

		second := &content.Article{Slug: "a", Title: "Second"}
		require.NoError(t, svc.UpsertArticle(ctx, second, nil))
		assert.Equal(t, first.ID, second.ID)

		all, err := svc.FindArticles(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, "Second", all[0].Title)
		assert.Equal(t, []string{}, all[0].Tags)
	})

	t.Run("rejects invalid article", func(t *testing.T) {
		t.Parallel()

		svc := sqlite.NewArticleService(openDB(t))

		err := svc.UpsertArticle(context.Background(), &content.Article{Title: "no slug"}, nil)
		require.Error(t, err)
		assert.Equal(t, content.EINVALID, content.ErrorCode(err))
	})
}

func TestArticleService_Queries(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := sqlite.NewArticleService(openDB(t))

	for _, a := range []*content.Article{
		{Slug: "guides/b", Title: "B", Folder: "guides"},
		{Slug: "guides/a", Title: "A", Folder: "guides"},
		{Slug: "api/x", Title: "X", Folder: "api"},
		{Slug: "readme", Title: "Readme"},
	} {
		require.NoError(t, svc.UpsertArticle(ctx, a, nil))
	}

	t.Run("lists folders without the root", func(t *testing.T) {
		folders, err := svc.ListFolders(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"api", "guides"}, folders)
	})

	t.Run("finds by folder ordered by slug", func(t *testing.T) {
		arts, err := svc.FindArticlesByFolder(ctx, "guides")
		require.NoError(t, err)
		require.Len(t, arts, 2)
		assert.Equal(t, "guides/a", arts[0].Slug)
		assert.Equal(t, "guides/b", arts[1].Slug)
	})

	t.Run("empty folder returns empty slice", func(t *testing.T) {
		arts, err := svc.FindArticlesByFolder(ctx, "missing")
		require.NoError(t, err)
		assert.NotNil(t, arts)
		assert.Empty(t, arts)
	})

	t.Run("missing slug is ENOTFOUND", func(t *testing.T) {
		_, err := svc.FindArticleBySlug(ctx, "nope")
		require.Error(t, err)
		assert.Equal(t, content.ENOTFOUND, content.ErrorCode(err))
	})

	t.Run("content hashes by slug", func(t *testing.T) {
		hashes, err := svc.ContentHashes(ctx)
		require.NoError(t, err)
		assert.Len(t, hashes, 4)
		assert.Contains(t, hashes, "readme")
	})
}

func TestArticleService_Delete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := sqlite.NewArticleService(openDB(t))
	require.NoError(t, svc.UpsertArticle(ctx, &content.Article{Slug: "gone", Title: "Gone"}, nil))

	require.NoError(t, svc.DeleteArticle(ctx, "gone"))

	err := svc.DeleteArticle(ctx, "gone")
	require.Error(t, err)
	assert.Equal(t, content.ENOTFOUND, content.ErrorCode(err))
}

func TestSearchService_Search(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := openDB(t)
	articles := sqlite.NewArticleService(db)

	require.NoError(t, articles.UpsertArticle(ctx, &content.Article{Slug: "same", Title: "Same", Tags: []string{"go"}}, []float32{1, 0}))
	require.NoError(t, articles.UpsertArticle(ctx, &content.Article{Slug: "orthogonal", Title: "Orthogonal"}, []float32{0, 1}))
	require.NoError(t, articles.UpsertArticle(ctx, &content.Article{Slug: "opposite", Title: "Opposite"}, []float32{-1, 0}))
	require.NoError(t, articles.UpsertArticle(ctx, &content.Article{Slug: "unindexed", Title: "Unindexed"}, nil))

	var gotTask content.TaskType
	embedder := &mock.Embedder{
		EmbedFn: func(_ context.Context, texts []string, opts content.EmbeddingOptions) ([][]float32, error) {
			gotTask = opts.TaskType
			return [][]float32{{2, 0}}, nil
		},
	}
	svc := sqlite.NewSearchService(db, embedder)

	t.Run("ranks by cosine distance and honors the limit", func(t *testing.T) {
		results, err := svc.Search(ctx, "golang", content.SearchOptions{Limit: 2})
		require.NoError(t, err)
		require.Len(t, results, 2)

		assert.Equal(t, "same", results[0].Slug)
		assert.InDelta(t, 0, results[0].Distance, 1e-9)
		assert.Equal(t, []string{"go"}, results[0].Tags)
		assert.Equal(t, "orthogonal", results[1].Slug)
		assert.InDelta(t, 1, results[1].Distance, 1e-9)
		assert.Equal(t, content.TaskRetrievalQuery, gotTask)
	})

	t.Run("skips articles without embedding", func(t *testing.T) {
		results, err := svc.Search(ctx, "golang", content.SearchOptions{Limit: 10})
		require.NoError(t, err)
		assert.Len(t, results, 3)
		assert.Equal(t, "opposite", results[2].Slug)
	})

	t.Run("rejects empty query", func(t *testing.T) {
		_, err := svc.Search(ctx, "", content.SearchOptions{Limit: 1})
		assert.Equal(t, content.EINVALID, content.ErrorCode(err))
	})

	t.Run("rejects non-positive limit", func(t *testing.T) {
		_, err := svc.Search(ctx, "golang", content.SearchOptions{})
		assert.Equal(t, content.EINVALID, content.ErrorCode(err))
	})
}

func TestSearchService_Search_PropagatesEmbedderError(t *testing.T) {
	t.Parallel()

	embedder := &mock.Embedder{
		EmbedFn: func(context.Context, []string, content.EmbeddingOptions) ([][]float32, error) {
			return nil, content.Errorf(content.EINTERNAL, "quota exceeded")
		},
	}
	svc := sqlite.NewSearchService(openDB(t), embedder)

	_, err := svc.Search(context.Background(), "golang", content.SearchOptions{Limit: 5})
	require.Error(t, err)
	assert.Contains(t, content.ErrorMessage(err), "quota exceeded")
}
