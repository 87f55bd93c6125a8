package application

import (
	"time"

	"docsearch-gateway/middleware/ratelimit/domain"
)

// Service concentra a regra de janela fixa do rate limit.
//
// Ele não sabe nada sobre HTTP (headers/status), apenas retorna um Result.
type Service struct {
	Store domain.WindowStore
	Now   func() time.Time
}

func (s Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Check conta a request e decide.
//
// A request que ultrapassa o limite também é contada (não existe "espiar" aqui).
// MaxRequests <= 0 nega tudo.
func (s Service) Check(key domain.Key, cfg domain.Config) domain.Result {
	now := s.now()
	if s.Store == nil {
		return domain.Result{Allowed: cfg.MaxRequests > 0, Limit: cfg.MaxRequests, Remaining: max(0, cfg.MaxRequests), ResetTime: now.Add(cfg.Window)}
	}

	ent := s.Store.Hit(key, now, cfg.Window)
	return domain.Result{
		Allowed:   ent.Count <= cfg.MaxRequests,
		Limit:     cfg.MaxRequests,
		Remaining: max(0, cfg.MaxRequests-ent.Count),
		ResetTime: ent.ResetTime,
	}
}

// Peek mostra o estado atual sem contar a request.
// Usado só para anotar respostas rejeitadas antes do limiter rodar.
func (s Service) Peek(key domain.Key, cfg domain.Config) domain.Result {
	now := s.now()
	res := domain.Result{
		Allowed:   cfg.MaxRequests > 0,
		Limit:     cfg.MaxRequests,
		Remaining: max(0, cfg.MaxRequests),
		ResetTime: now.Add(cfg.Window),
	}
	if s.Store == nil || cfg.Window <= 0 {
		return res
	}

	ent, ok := s.Store.Lookup(key)
	if !ok || ent.Expired(now) {
		return res
	}
	res.Allowed = ent.Count < cfg.MaxRequests
	res.Remaining = max(0, cfg.MaxRequests-ent.Count)
	res.ResetTime = ent.ResetTime
	return res
}
