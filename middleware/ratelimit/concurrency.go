package ratelimit

import (
	"net/http"
	"time"

	"docsearch-gateway/httpjson"
	"docsearch-gateway/middleware/ratelimit/application"
	"docsearch-gateway/middleware/ratelimit/infra"
)

// BusyRetryAfter é o Retry-After (segundos) mandado quando não há vaga.
const BusyRetryAfter = "1"

type ConcurrencyOptions struct {
	Max            int
	AcquireTimeout time.Duration

	// OnBusy roda antes do 503. inUse é o número de vagas ocupadas.
	OnBusy func(r *http.Request, inUse int64)
}

// ConcurrencyMiddleware segura buscas além de Max até AcquireTimeout.
// Max <= 0 desliga o limite.
func ConcurrencyMiddleware(opts ConcurrencyOptions) func(next http.Handler) http.Handler {
	if opts.Max <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	slots := infra.NewSearchSlots(int64(opts.Max))
	svc := application.SlotService{Slots: slots, Wait: opts.AcquireTimeout}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			release, ok := svc.Reserve(r.Context())
			if !ok {
				if opts.OnBusy != nil {
					opts.OnBusy(r, slots.InUse())
				}
				w.Header().Set("Retry-After", BusyRetryAfter)
				httpjson.Error(w, http.StatusServiceUnavailable, "Service unavailable", "Search is busy. Please try again shortly.")
				return
			}
			defer release()

			next.ServeHTTP(w, r)
		})
	}
}
