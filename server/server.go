// Package server monta o roteador chi: a pipeline de guarda na frente de
// POST /api/search.json e a API de leitura de conteúdo.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"docsearch-gateway/content"
	"docsearch-gateway/middleware/origin"
	"docsearch-gateway/middleware/ratelimit"
	"docsearch-gateway/middleware/ratelimit/domain"
	"docsearch-gateway/middleware/ratelimit/infra"
	"docsearch-gateway/search"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const SearchRoute = "/api/search.json"

type Options struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	SiteOrigin string
	Env        origin.Env

	RateLimit domain.Config
	// Store guarda as janelas. O ciclo de vida (Start/Stop) é de quem cria.
	Store domain.WindowStore
	Stats domain.StatsStore

	MaxConcurrent  int
	AcquireTimeout time.Duration

	Search   search.Options
	Articles content.ArticleService

	Logger *zap.Logger
}

// Server é o servidor HTTP.
type Server struct {
	router *chi.Mux
	server *http.Server
	logger *zap.Logger
}

func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Store == nil {
		opts.Store = infra.NewWindowStore(infra.WithSweepEvery(0))
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 30 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(accessLog(opts.Logger))
	r.Use(recoverer(opts.Logger))

	r.NotFound(notFound)
	r.MethodNotAllowed(methodNotAllowed)

	s := &Server{
		router: r,
		logger: opts.Logger,
		server: &http.Server{
			Addr:              opts.Addr,
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       opts.ReadTimeout,
			WriteTimeout:      opts.WriteTimeout,
			IdleTimeout:       90 * time.Second,
		},
	}
	s.registerRoutes(opts)
	return s
}

func (s *Server) registerRoutes(opts Options) {
	s.router.Get("/healthz", health)

	limiter := ratelimit.NewLimiter(ratelimit.Options{
		Store:  opts.Store,
		Stats:  opts.Stats,
		Config: opts.RateLimit,
		Route:  http.MethodPost + " " + SearchRoute,
		Logger: opts.Logger,
	})

	searchOpts := opts.Search
	if searchOpts.Logger == nil {
		searchOpts.Logger = opts.Logger
	}

	// Ordem: origem, rate limit, concorrência, handler.
	s.router.With(
		origin.Middleware(origin.Options{
			SiteOrigin: opts.SiteOrigin,
			Env:        opts.Env,
			Logger:     opts.Logger,
			OnReject:   limiter.Annotate,
		}),
		limiter.Handler,
		ratelimit.ConcurrencyMiddleware(ratelimit.ConcurrencyOptions{
			Max:            opts.MaxConcurrent,
			AcquireTimeout: opts.AcquireTimeout,
			OnBusy: func(r *http.Request, inUse int64) {
				opts.Logger.Warn("search slots exhausted",
					zap.String("request_id", middleware.GetReqID(r.Context())),
					zap.Int64("in_use", inUse),
				)
			},
		}),
	).Post(SearchRoute, search.NewHandler(searchOpts).ServeHTTP)

	if opts.Articles != nil {
		h := &contentHandler{articles: opts.Articles, logger: opts.Logger}
		s.router.Get("/api/folders.json", h.listFolders)
		s.router.Get("/api/folders/{folder}", h.folderArticles)
		s.router.Get("/api/articles/*", h.article)
	}
}

// Listen abre o listener TCP em Options.Addr.
func (s *Server) Listen() (net.Listener, error) {
	return net.Listen("tcp", s.server.Addr)
}

// Run serve em ln até ctx encerrar e só retorna depois que as requests em
// andamento terminaram (ou shutdownTimeout estourou). Quem chama pode fechar
// banco e stores logo em seguida.
func (s *Server) Run(ctx context.Context, ln net.Listener, shutdownTimeout time.Duration) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("starting HTTP server", zap.String("addr", ln.Addr().String()))
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// Handler expõe o roteador para testes.
func (s *Server) Handler() http.Handler {
	return s.router
}
