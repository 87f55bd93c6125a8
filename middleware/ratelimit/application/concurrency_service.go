package application

import (
	"context"
	"time"

	"docsearch-gateway/middleware/ratelimit/domain"
)

// SlotService decide quanto uma busca espera por vaga.
type SlotService struct {
	Slots domain.SearchSlots
	Wait  time.Duration
}

// Reserve pega uma vaga. Wait <= 0 espera enquanto a request viver.
// Com ok=false nada foi reservado e release é nil.
func (s SlotService) Reserve(ctx context.Context) (release func(), ok bool) {
	if s.Slots == nil {
		return func() {}, true
	}
	if s.Wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Wait)
		defer cancel()
	}
	return s.Slots.Acquire(ctx)
}
