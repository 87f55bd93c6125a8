package main

import (
	"fmt"
	"strings"

	"docsearch-gateway/content"
	"docsearch-gateway/content/sqlite"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Run a semantic search against the index",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().IntP("limit", "n", 10, "max results")
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	limit, _ := cmd.Flags().GetInt("limit")
	limit = max(1, min(limit, cfg.Search.MaxLimit))

	db := sqlite.NewDB(cfg.Store.Path)
	if err := db.Open(); err != nil {
		return err
	}
	defer db.Close()

	embedder, err := newEmbedder(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}

	query := strings.Join(args, " ")
	results, err := sqlite.NewSearchService(db, embedder).Search(cmd.Context(), query, content.SearchOptions{
		Limit: limit,
		Embedding: content.EmbeddingOptions{
			TaskType:   content.TaskRetrievalQuery,
			Dimensions: cfg.Gemini.Dimensions,
		},
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), renderResults(results))
	return nil
}

func renderResults(results []content.SearchResult) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"#", "Title", "Slug", "Folder", "Tags", "Distance"})
	for i, r := range results {
		t.AppendRow(table.Row{
			i + 1,
			r.Title,
			r.Slug,
			r.Folder,
			strings.Join(r.Tags, ", "),
			fmt.Sprintf("%.4f", r.Distance),
		})
	}
	t.AppendFooter(table.Row{"", "", "", "", "results", len(results)})
	return t.Render()
}
