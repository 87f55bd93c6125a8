package infra

import (
	"context"
	"sync"
	"time"

	"docsearch-gateway/middleware/ratelimit/domain"

	"github.com/cespare/xxhash/v2"
)

const defaultShards = 32

// WindowStore é o store em memória do rate limit por janela fixa.
//
// As chaves são distribuídas em shards (xxhash) e cada shard tem o próprio mutex,
// então a limpeza periódica nunca segura chaves de outros shards.
// O estado é do processo: reiniciar zera todos os contadores.
type WindowStore struct {
	shards     []*windowShard
	sweepEvery time.Duration
	now        func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

type windowShard struct {
	mu      sync.Mutex
	entries map[domain.Key]domain.Entry
}

type WindowStoreOption func(*WindowStore)

// WithSweepEvery define o intervalo da limpeza (<= 0 desliga).
func WithSweepEvery(d time.Duration) WindowStoreOption {
	return func(s *WindowStore) { s.sweepEvery = d }
}

// WithShards define o número de shards.
func WithShards(n int) WindowStoreOption {
	return func(s *WindowStore) {
		if n > 0 {
			s.shards = make([]*windowShard, n)
		}
	}
}

// WithClock troca o relógio usado pela limpeza.
func WithClock(now func() time.Time) WindowStoreOption {
	return func(s *WindowStore) { s.now = now }
}

func NewWindowStore(opts ...WindowStoreOption) *WindowStore {
	s := &WindowStore{
		shards:     make([]*windowShard, defaultShards),
		sweepEvery: time.Minute,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	for i := range s.shards {
		s.shards[i] = &windowShard{entries: make(map[domain.Key]domain.Entry)}
	}
	return s
}

func (s *WindowStore) SweepEvery() time.Duration { return s.sweepEvery }

func (s *WindowStore) shard(key domain.Key) *windowShard {
	return s.shards[xxhash.Sum64String(string(key))%uint64(len(s.shards))]
}

// Hit implementa domain.WindowStore.
func (s *WindowStore) Hit(key domain.Key, now time.Time, window time.Duration) domain.Entry {
	sh := s.shard(key)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	ent, ok := sh.entries[key]
	if !ok || window <= 0 || ent.Expired(now) {
		ent = domain.Entry{ResetTime: now.Add(window)}
	}
	ent.Count++
	sh.entries[key] = ent
	return ent
}

// Lookup implementa domain.WindowStore.
func (s *WindowStore) Lookup(key domain.Key) (domain.Entry, bool) {
	sh := s.shard(key)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	ent, ok := sh.entries[key]
	return ent, ok
}

// Len retorna o total de entradas (diagnóstico).
func (s *WindowStore) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		n += len(sh.entries)
		sh.mu.Unlock()
	}
	return n
}

// Sweep remove as entradas cuja janela já passou e retorna quantas saíram.
// Trava um shard por vez.
func (s *WindowStore) Sweep(now time.Time) int {
	removed := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		for k, ent := range sh.entries {
			if ent.Expired(now) {
				delete(sh.entries, k)
				removed++
			}
		}
		sh.mu.Unlock()
	}
	return removed
}

// Start inicia a goroutine de limpeza periódica. Chamadas repetidas são ignoradas.
// Pare com Stop ou cancelando o contexto.
func (s *WindowStore) Start(ctx context.Context) {
	if s.sweepEvery <= 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done

	t := time.NewTicker(s.sweepEvery)
	go func() {
		defer close(done)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Sweep(s.now())
			}
		}
	}()
}

// Stop para a limpeza e espera a goroutine terminar.
func (s *WindowStore) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}
