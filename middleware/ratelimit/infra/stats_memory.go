package infra

import (
	"context"
	"maps"
	"sync"

	"address-gateway/middleware/ratelimit/domain"
)

// MemoryStatsStore guarda contadores de decisão em memória.
// Servido em GET /stats quando STATS_BACKEND=memory.
//
// Não faz expiração: byKey só é populado com WithTrackKeys(true).
type MemoryStatsStore struct {
	mu         sync.Mutex
	total      Counters
	byEndpoint map[domain.Endpoint]Counters
	byKey      map[string]Counters

	trackKeys bool
}

type MemoryStatsOption func(*MemoryStatsStore)

func WithTrackKeys(track bool) MemoryStatsOption {
	return func(s *MemoryStatsStore) { s.trackKeys = track }
}

func NewMemoryStatsStore(opts ...MemoryStatsOption) *MemoryStatsStore {
	s := &MemoryStatsStore{
		byEndpoint: make(map[domain.Endpoint]Counters),
		byKey:      make(map[string]Counters),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStatsStore) Record(_ context.Context, ev domain.StatsEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total.add(ev.Allowed)

	c := s.byEndpoint[ev.Endpoint]
	c.add(ev.Allowed)
	s.byEndpoint[ev.Endpoint] = c

	if s.trackKeys {
		k := s.byKey[string(ev.Key)]
		k.add(ev.Allowed)
		s.byKey[string(ev.Key)] = k
	}
	return nil
}

func (s *MemoryStatsStore) Total() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// Snapshot implementa StatsReader.
func (s *MemoryStatsStore) Snapshot(context.Context) (StatsSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := StatsSnapshot{
		Total:      s.total,
		ByEndpoint: maps.Clone(s.byEndpoint),
	}
	if s.trackKeys {
		snap.ByKey = maps.Clone(s.byKey)
	}
	return snap, nil
}
