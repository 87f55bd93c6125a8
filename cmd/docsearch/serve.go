package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"docsearch-gateway/config"
	"docsearch-gateway/content"
	"docsearch-gateway/content/sqlite"
	"docsearch-gateway/middleware/ratelimit/domain"
	"docsearch-gateway/middleware/ratelimit/infra"
	"docsearch-gateway/search"
	"docsearch-gateway/server"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Sobe o servidor HTTP. SIGINT/SIGTERM encerram com graceful shutdown
e param a varredura das janelas do rate limit.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides server.addr)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	db := sqlite.NewDB(cfg.Store.Path)
	if err := db.Open(); err != nil {
		return err
	}
	defer db.Close()

	embedder, err := newEmbedder(ctx, cfg, logger)
	if err != nil {
		return err
	}

	store := infra.NewWindowStore(infra.WithSweepEvery(cfg.RateLimit.SweepInterval))
	store.Start(ctx)
	defer store.Stop()

	stats, closeStats, err := newStatsStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStats()

	if cfg.Site.Origin == "" && !cfg.OriginEnv().Development && !cfg.OriginEnv().Test {
		logger.Warn("site.origin is empty: every search request will be rejected with 403")
	}

	srv := server.New(server.Options{
		Addr:           cfg.Server.Addr,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		SiteOrigin:     cfg.Site.Origin,
		Env:            cfg.OriginEnv(),
		RateLimit:      cfg.RateLimitConfig(),
		Store:          store,
		Stats:          stats,
		MaxConcurrent:  cfg.Search.MaxConcurrent,
		AcquireTimeout: cfg.Search.AcquireTimeout,
		Search: search.Options{
			Service:        sqlite.NewSearchService(db, embedder),
			DefaultLimit:   cfg.Search.DefaultLimit,
			MaxLimit:       cfg.Search.MaxLimit,
			MaxQueryLength: cfg.Search.MaxQueryLength,
			Embedding: content.EmbeddingOptions{
				TaskType:   content.TaskRetrievalQuery,
				Dimensions: cfg.Gemini.Dimensions,
			},
		},
		Articles: sqlite.NewArticleService(db),
		Logger:   logger,
	})

	logger.Info("rate limit configured",
		zap.Int("max_requests", cfg.RateLimit.MaxRequests),
		zap.Duration("window", cfg.RateLimit.Window),
		zap.String("trusted_header", cfg.RateLimitConfig().TrustedHeader.String()),
		zap.Duration("sweep_interval", store.SweepEvery()),
		zap.Bool("stats", cfg.Stats.Enabled),
	)
	logger.Info("origin validation configured",
		zap.String("site_origin", cfg.Site.Origin),
		zap.String("mode", cfg.Site.Mode),
	)

	ln, err := srv.Listen()
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Server.Addr, err)
	}

	// Run só volta depois do drain: os defers de db/store/stats rodam com
	// nenhuma busca em andamento.
	if err := srv.Run(ctx, ln, cfg.Server.ShutdownTimeout); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	logger.Info("server stopped", zap.Int("rate_limit_entries", store.Len()))
	return nil
}

// newStatsStore conecta no Redis quando stats.enabled. Sem stats devolve nil.
func newStatsStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (domain.StatsStore, func(), error) {
	if !cfg.Stats.Enabled {
		return nil, func() {}, nil
	}

	stats, closeFn, err := dialRedisStats(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("guard stats enabled",
		zap.String("redis_addr", cfg.Stats.RedisAddr),
		zap.String("prefix", stats.Prefix()),
		zap.Duration("ttl", cfg.Stats.TTL),
		zap.Bool("track_keys", cfg.Stats.TrackKeys),
	)
	return stats, closeFn, nil
}

func dialRedisStats(ctx context.Context, cfg *config.Config) (*infra.RedisStatsStore, func(), error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Stats.RedisAddr,
		Password: cfg.Stats.RedisPassword,
		DB:       cfg.Stats.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	_, err := rdb.Ping(pingCtx).Result()
	cancel()
	if err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("redis stats ping: %w", err)
	}

	stats := infra.NewRedisStatsStore(rdb,
		infra.WithStatsPrefix(cfg.Stats.Prefix),
		infra.WithStatsTTL(cfg.Stats.TTL),
		infra.WithStatsTrackKeys(cfg.Stats.TrackKeys),
	)
	return stats, func() { _ = rdb.Close() }, nil
}
