package ratelimit

import (
	"net/http"

	"docsearch-gateway/middleware/ratelimit/domain"
)

const (
	HeaderLimit     = "X-RateLimit-Limit"
	HeaderRemaining = "X-RateLimit-Remaining"
	HeaderReset     = "X-RateLimit-Reset"
)

// Headers monta os headers padrão do rate limit. O reset vai em segundos Unix,
// truncado.
func Headers(res domain.Result) map[string]string {
	return map[string]string{
		HeaderLimit:     formatInt(res.Limit),
		HeaderRemaining: formatInt(max(0, res.Remaining)),
		HeaderReset:     formatInt64(res.ResetTime.Unix()),
	}
}

func setHeaders(w http.ResponseWriter, res domain.Result) {
	for k, v := range Headers(res) {
		w.Header().Set(k, v)
	}
}
