package ratelimit

import (
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"docsearch-gateway/middleware/ratelimit/domain"

	"github.com/google/uuid"
)

type KeyFunc func(r *http.Request) domain.Key

// ClientKey identifica o cliente pelo header de proxy confiável.
//
// Para X-Forwarded-For usa a primeira entrada da lista. ATENÇÃO: esse valor é
// controlado pelo cliente a menos que a infraestrutura na frente remova/reescreva
// o header. Confiar nele é uma escolha de deploy, não um padrão seguro.
//
// Sem header configurado, ou com valor ausente/inválido, retorna um id único por
// request: clientes não identificados nunca dividem o mesmo balde (mas também não
// sofrem limite efetivo individualmente).
func ClientKey(r *http.Request, header domain.TrustedHeader) domain.Key {
	if ip, ok := headerIP(r, header); ok {
		return domain.Key(ip)
	}
	return anonymousKey()
}

// DefaultKeyFunc fixa o header confiável escolhido no deploy.
func DefaultKeyFunc(header domain.TrustedHeader) KeyFunc {
	return func(r *http.Request) domain.Key {
		return ClientKey(r, header)
	}
}

func headerIP(r *http.Request, header domain.TrustedHeader) (string, bool) {
	name := header.Name()
	if name == "" {
		return "", false
	}

	v := r.Header.Get(name)
	if header == domain.HeaderXForwardedFor {
		// pega o primeiro IP do X-Forwarded-For (cliente original)
		v, _, _ = strings.Cut(v, ",")
	}
	v = strings.TrimSpace(v)
	if !ValidIP(v) {
		return "", false
	}
	return v, true
}

// ValidIP aceita apenas literais IPv4 (quatro octetos decimais, sem zero à
// esquerda) e IPv6 sem zona. O literal não é canonicalizado: formas IPv6
// comprimidas diferentes viram chaves diferentes.
func ValidIP(s string) bool {
	if s == "" || strings.ContainsAny(s, "%[] ") {
		return false
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return false
	}
	return addr.Zone() == ""
}

func anonymousKey() domain.Key {
	return domain.Key(domain.AnonymousPrefix + strconv.FormatInt(time.Now().UnixNano(), 36) + ":" + uuid.NewString())
}
