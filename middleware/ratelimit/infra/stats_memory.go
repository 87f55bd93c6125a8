package infra

import (
	"context"
	"maps"
	"sync"

	"docsearch-gateway/middleware/ratelimit/domain"
)

// Tally conta eventos por destino.
type Tally map[domain.Outcome]int64

// Sum soma todos os destinos.
func (t Tally) Sum() int64 {
	var n int64
	for _, v := range t {
		n += v
	}
	return n
}

// MemoryStatsStore agrega as decisões em memória, sem expiração.
// Usado no example-server e nos testes.
type MemoryStatsStore struct {
	mu      sync.Mutex
	total   Tally
	byRoute map[string]Tally
	byKey   map[domain.Key]Tally

	trackKeys bool
}

type MemoryStatsOption func(*MemoryStatsStore)

// WithTrackKeys liga a contagem por cliente. Chaves anônimas nunca entram.
func WithTrackKeys(track bool) MemoryStatsOption {
	return func(s *MemoryStatsStore) { s.trackKeys = track }
}

func NewMemoryStatsStore(opts ...MemoryStatsOption) *MemoryStatsStore {
	s := &MemoryStatsStore{
		total:   Tally{},
		byRoute: make(map[string]Tally),
		byKey:   make(map[domain.Key]Tally),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStatsStore) Record(_ context.Context, ev domain.StatsEvent) error {
	if ev.Outcome == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.total[ev.Outcome]++
	if ev.Route != "" {
		tallyFor(s.byRoute, ev.Route)[ev.Outcome]++
	}
	if s.trackKeys && ev.Key != "" && !ev.Key.Anonymous() {
		tallyFor(s.byKey, ev.Key)[ev.Outcome]++
	}
	return nil
}

func tallyFor[K comparable](m map[K]Tally, k K) Tally {
	t, ok := m[k]
	if !ok {
		t = Tally{}
		m[k] = t
	}
	return t
}

func (s *MemoryStatsStore) Total() Tally {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.total)
}

func (s *MemoryStatsStore) ByRoute() map[string]Tally {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Tally, len(s.byRoute))
	for k, v := range s.byRoute {
		out[k] = maps.Clone(v)
	}
	return out
}

func (s *MemoryStatsStore) ByKey() map[domain.Key]Tally {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[domain.Key]Tally, len(s.byKey))
	for k, v := range s.byKey {
		out[k] = maps.Clone(v)
	}
	return out
}
