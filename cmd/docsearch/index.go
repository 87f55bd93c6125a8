package main

import (
	"fmt"
	"os"

	"docsearch-gateway/content/markdown"
	"docsearch-gateway/content/sqlite"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var indexCmd = &cobra.Command{
	Use:   "index [dir]",
	Short: "Index markdown content into the vector store",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runIndex,
}

func init() {
	indexCmd.Flags().Bool("force", false, "re-embed articles even when unchanged")
	indexCmd.Flags().Bool("prune", false, "delete stored articles missing from the content dir")
	indexCmd.Flags().Int("concurrency", 4, "articles embedded in parallel")
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	dir := cfg.Content.Dir
	if len(args) == 1 {
		dir = args[0]
	}
	force, _ := cmd.Flags().GetBool("force")
	prune, _ := cmd.Flags().GetBool("prune")
	concurrency, _ := cmd.Flags().GetInt("concurrency")

	articles, err := markdown.Load(os.DirFS(dir))
	if err != nil {
		return fmt.Errorf("load %s: %w", dir, err)
	}
	logger.Info("content loaded", zap.String("dir", dir), zap.Int("articles", len(articles)))

	db := sqlite.NewDB(cfg.Store.Path)
	if err := db.Open(); err != nil {
		return err
	}
	defer db.Close()

	embedder, err := newEmbedder(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}

	ix := &markdown.Indexer{
		Store:       sqlite.NewArticleService(db),
		Embedder:    embedder,
		Concurrency: concurrency,
		Dimensions:  cfg.Gemini.Dimensions,
		Prune:       prune,
		Force:       force,
		Logger:      logger,
	}
	stats, err := ix.Index(cmd.Context(), articles)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "indexed %d, skipped %d, deleted %d\n", stats.Indexed, stats.Skipped, stats.Deleted)
	return nil
}
