package domain

import (
	"context"
	"time"
)

// Outcome é o destino de uma request que passou pela pipeline de guarda.
type Outcome string

const (
	OutcomeAllowed        Outcome = "allowed"
	OutcomeRateLimited    Outcome = "rate_limited"
	OutcomeOriginRejected Outcome = "origin_rejected"
)

// Outcomes lista os destinos na ordem usada em relatórios.
var Outcomes = []Outcome{OutcomeAllowed, OutcomeRateLimited, OutcomeOriginRejected}

// StatsEvent é uma decisão da pipeline de guarda.
//
// Route deve ser o padrão da rota ("POST /api/search.json"), nunca o path cru,
// para não explodir a cardinalidade.
type StatsEvent struct {
	Key     Key
	Outcome Outcome
	Route   string
	At      time.Time
}

// StatsStore persiste as decisões. Erro é best-effort: a request segue.
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}
