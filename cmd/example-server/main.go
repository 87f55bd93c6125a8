package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"docsearch-gateway/content"
	"docsearch-gateway/middleware/origin"
	"docsearch-gateway/middleware/ratelimit"
	"docsearch-gateway/middleware/ratelimit/domain"
	"docsearch-gateway/middleware/ratelimit/infra"
	"docsearch-gateway/search"

	"go.uber.org/zap"
)

// Exemplo: pipeline de guarda injetada direto num http.ServeMux, sem Gemini
// nem SQLite. A busca é um filtro por título sobre artigos fixos.
func main() {
	logger, _ := zap.NewDevelopment()
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store := infra.NewWindowStore(infra.WithSweepEvery(10 * time.Second))
	store.Start(ctx)
	defer store.Stop()

	stats := infra.NewMemoryStatsStore(infra.WithTrackKeys(true))

	limiter := ratelimit.NewLimiter(ratelimit.Options{
		Store:  store,
		Stats:  stats,
		Config: domain.Config{MaxRequests: 5, Window: 10 * time.Second, TrustedHeader: domain.HeaderXRealIP},
		Route:  "POST /api/search.json",
		Logger: logger,
	})

	h := http.Handler(search.NewHandler(search.Options{Service: staticSearch{}, Logger: logger}))
	h = ratelimit.ConcurrencyMiddleware(ratelimit.ConcurrencyOptions{Max: 50})(h)
	h = limiter.Handler(h)
	h = origin.Middleware(origin.Options{
		SiteOrigin: "http://localhost:8081",
		Env:        origin.Env{Development: true},
		Logger:     logger,
		OnReject:   limiter.Annotate,
	})(h)

	mux := http.NewServeMux()
	mux.Handle("POST /api/search.json", h)
	mux.HandleFunc("GET /api/search.json", search.MethodNotAllowed)

	addr := ":8081"
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		addr = v
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	drained := make(chan struct{})
	go func() {
		defer close(drained)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown did not drain", zap.Error(err))
		}
	}()

	logger.Info("example server listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
	// ListenAndServe volta antes do drain; os números só fecham depois dele.
	<-drained

	total := stats.Total()
	logger.Info("guard decisions",
		zap.Int64("allowed", total[domain.OutcomeAllowed]),
		zap.Int64("rate_limited", total[domain.OutcomeRateLimited]),
		zap.Int64("origin_rejected", total[domain.OutcomeOriginRejected]),
		zap.Int("clients", len(stats.ByKey())),
	)
}

var articles = []content.SearchResult{
	{ID: "1", Title: "Getting started", Slug: "guides/getting-started", Folder: "guides", Tags: []string{"intro"}},
	{ID: "2", Title: "Search API", Slug: "api/search", Folder: "api", Tags: []string{"api", "search"}},
	{ID: "3", Title: "Rate limits", Slug: "api/rate-limits", Folder: "api", Tags: []string{"api"}},
}

type staticSearch struct{}

func (staticSearch) Search(_ context.Context, query string, opts content.SearchOptions) ([]content.SearchResult, error) {
	q := strings.ToLower(query)
	out := []content.SearchResult{}
	for _, a := range articles {
		if strings.Contains(strings.ToLower(a.Title), q) {
			a.Distance = 0
			out = append(out, a)
		}
		if len(out) == opts.Limit {
			break
		}
	}
	return out, nil
}
