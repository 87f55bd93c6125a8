package infra

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"docsearch-gateway/middleware/ratelimit/domain"
)

type weightedSlots struct {
	sem   *semaphore.Weighted
	inUse atomic.Int64
}

// NewSearchSlots cria n vagas de busca em cima de um semaphore.Weighted.
func NewSearchSlots(n int64) domain.SearchSlots {
	return &weightedSlots{sem: semaphore.NewWeighted(n)}
}

func (s *weightedSlots) Acquire(ctx context.Context) (func(), bool) {
	// Acquire do semaphore pode ganhar de um ctx já cancelado quando há vaga.
	if ctx.Err() != nil {
		return nil, false
	}
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, false
	}
	s.inUse.Add(1)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.inUse.Add(-1)
			s.sem.Release(1)
		})
	}, true
}

func (s *weightedSlots) InUse() int64 { return s.inUse.Load() }
