package domain

import "context"

// SearchSlots reserva vagas para buscas que chegam ao embedder e ao SQLite.
//
// Acquire devolve um release que deve rodar uma única vez.
// InUse serve só para diagnóstico.
type SearchSlots interface {
	Acquire(ctx context.Context) (release func(), ok bool)
	InUse() int64
}
