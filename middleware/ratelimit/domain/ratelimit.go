package domain

// Camada de domínio do rate limit (janela fixa).
//
// Regras e contratos (interfaces/tipos) sem dependência de net/http.

import (
	"fmt"
	"strings"
	"time"
)

// Key identifica um cliente (IP validado ou id de fallback por request).
type Key string

// AnonymousPrefix marca ids de fallback, únicos por request.
const AnonymousPrefix = "anon:"

// Anonymous indica se a chave é um id de fallback (cliente não identificado).
func (k Key) Anonymous() bool {
	return strings.HasPrefix(string(k), AnonymousPrefix)
}

// TrustedHeader é o header de proxy confiável usado para identificar o cliente.
//
// É um conjunto fechado escolhido no deploy: confiar no header errado é falha de segurança.
type TrustedHeader int

const (
	HeaderNone TrustedHeader = iota
	HeaderCFConnectingIP
	HeaderXRealIP
	HeaderXForwardedFor
)

// Name retorna o nome HTTP do header ("" para HeaderNone).
func (h TrustedHeader) Name() string {
	switch h {
	case HeaderCFConnectingIP:
		return "CF-Connecting-IP"
	case HeaderXRealIP:
		return "X-Real-IP"
	case HeaderXForwardedFor:
		return "X-Forwarded-For"
	default:
		return ""
	}
}

func (h TrustedHeader) String() string {
	if h == HeaderNone {
		return "none"
	}
	return h.Name()
}

// ParseTrustedHeader aceita o nome do header (case-insensitive) ou "none"/"".
func ParseTrustedHeader(s string) (TrustedHeader, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return HeaderNone, nil
	case "cf-connecting-ip", "cloudflare":
		return HeaderCFConnectingIP, nil
	case "x-real-ip":
		return HeaderXRealIP, nil
	case "x-forwarded-for":
		return HeaderXForwardedFor, nil
	}
	return HeaderNone, fmt.Errorf("unsupported trusted header %q", s)
}

// Config é a configuração por chamada do limiter.
type Config struct {
	MaxRequests   int
	Window        time.Duration
	TrustedHeader TrustedHeader
}

// Entry é o estado de um cliente na janela corrente.
type Entry struct {
	Count     int
	ResetTime time.Time
}

// Expired indica se a janela da entrada já passou em now.
func (e Entry) Expired(now time.Time) bool {
	return now.After(e.ResetTime)
}

// Result é derivado a cada checagem, nunca armazenado.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetTime time.Time
}

// RetryAfter retorna quanto falta para a janela reiniciar, arredondado para cima
// em segundos e no mínimo 1s.
func (r Result) RetryAfter(now time.Time) time.Duration {
	d := r.ResetTime.Sub(now)
	secs := int64(d / time.Second)
	if d%time.Second > 0 {
		secs++
	}
	if secs < 1 {
		secs = 1
	}
	return time.Duration(secs) * time.Second
}

// WindowStore guarda uma entrada por chave.
//
// Hit cria uma entrada nova quando não existe, expirou, ou window <= 0, e então
// incrementa Count. Retorna a entrada já incrementada.
// Lookup lê sem alterar.
type WindowStore interface {
	Hit(key Key, now time.Time, window time.Duration) Entry
	Lookup(key Key) (Entry, bool)
}
