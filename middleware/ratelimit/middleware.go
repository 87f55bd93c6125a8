package ratelimit

import (
	"net/http"
	"time"

	"docsearch-gateway/httpjson"
	"docsearch-gateway/middleware/ratelimit/application"
	"docsearch-gateway/middleware/ratelimit/domain"
	"docsearch-gateway/middleware/ratelimit/infra"

	"go.uber.org/zap"
)

type Options struct {
	Store  domain.WindowStore
	Stats  domain.StatsStore
	Config domain.Config
	KeyFn  KeyFunc
	Route  string
	Now    func() time.Time
	Logger *zap.Logger
}

// Limiter é o adapter HTTP do rate limit por janela fixa.
type Limiter struct {
	svc    application.Service
	cfg    domain.Config
	stats  domain.StatsStore
	keyFn  KeyFunc
	route  string
	now    func() time.Time
	logger *zap.Logger
}

func NewLimiter(opts Options) *Limiter {
	if opts.Store == nil {
		opts.Store = infra.NewWindowStore(infra.WithSweepEvery(0))
	}
	if opts.KeyFn == nil {
		opts.KeyFn = DefaultKeyFunc(opts.Config.TrustedHeader)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	return &Limiter{
		svc:    application.Service{Store: opts.Store, Now: opts.Now},
		cfg:    opts.Config,
		stats:  opts.Stats,
		keyFn:  opts.KeyFn,
		route:  opts.Route,
		now:    opts.Now,
		logger: opts.Logger,
	}
}

// Middleware monta um Limiter e devolve o middleware.
func Middleware(opts Options) func(next http.Handler) http.Handler {
	return NewLimiter(opts).Handler
}

// Handler conta a request. Os headers X-RateLimit-* vão em toda resposta,
// permitida ou não, para o cliente se regular.
func (l *Limiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := l.keyFn(r)
		res := l.svc.Check(key, l.cfg)
		setHeaders(w, res)
		outcome := domain.OutcomeAllowed
		if !res.Allowed {
			outcome = domain.OutcomeRateLimited
		}
		l.record(r, key, outcome)

		if !res.Allowed {
			retry := res.RetryAfter(l.now())
			w.Header().Set("Retry-After", formatSeconds(retry.Seconds()))
			httpjson.Write(w, http.StatusTooManyRequests, httpjson.ErrorBody{
				Error:      "Too many requests",
				Message:    "Rate limit exceeded. Please try again later.",
				RetryAfter: int(retry.Seconds()),
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Annotate coloca os headers X-RateLimit-* sem contar a request na janela.
// Serve para respostas rejeitadas antes do limiter (ex.: origem inválida),
// que entram nas estatísticas como origin_rejected.
func (l *Limiter) Annotate(w http.ResponseWriter, r *http.Request) {
	key := l.keyFn(r)
	setHeaders(w, l.svc.Peek(key, l.cfg))
	l.record(r, key, domain.OutcomeOriginRejected)
}

func (l *Limiter) record(r *http.Request, key domain.Key, outcome domain.Outcome) {
	if l.stats == nil {
		return
	}
	route := l.route
	if route == "" {
		route = r.Method + " " + r.URL.Path
	}
	ev := domain.StatsEvent{
		Key:     key,
		Outcome: outcome,
		Route:   route,
		At:      l.now(),
	}
	if err := l.stats.Record(r.Context(), ev); err != nil {
		l.logger.Warn("guard stats record failed", zap.String("route", route), zap.String("outcome", string(outcome)), zap.Error(err))
	}
}
