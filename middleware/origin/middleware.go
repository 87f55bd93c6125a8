package origin

import (
	"errors"
	"net/http"

	"docsearch-gateway/httpjson"

	"go.uber.org/zap"
)

type Options struct {
	// SiteOrigin é a origem canônica do site publicado. Pode ser vazia.
	SiteOrigin string
	Env        Env
	Logger     *zap.Logger
	// OnReject roda antes do 403 (ex.: anotar headers do rate limit).
	OnReject func(w http.ResponseWriter, r *http.Request)
}

// Middleware rejeita com 403, sem detalhes, requests cuja origem não valida.
func Middleware(opts Options) func(next http.Handler) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, err := Validate(r, opts.SiteOrigin, opts.Env)
			if err != nil {
				if errors.Is(err, ErrMalformedReferer) {
					logger.Warn("origin validation failed on malformed referer",
						zap.String("referer", r.Header.Get("Referer")),
						zap.Error(err))
				} else {
					logger.Error("origin validation error", zap.Error(err))
				}
			}
			if !ok {
				if err == nil {
					logger.Debug("origin rejected",
						zap.String("origin", r.Header.Get("Origin")),
						zap.String("path", r.URL.Path))
				}
				if opts.OnReject != nil {
					opts.OnReject(w, r)
				}
				httpjson.Error(w, http.StatusForbidden, "Forbidden", "")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
