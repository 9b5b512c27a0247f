package infra

import (
	"context"

	"address-gateway/middleware/ratelimit/domain"
)

// Counters conta decisões de cota.
type Counters struct {
	Allowed int64 `json:"allowed"`
	Denied  int64 `json:"denied"`
}

func (c *Counters) add(allowed bool) {
	if allowed {
		c.Allowed++
		return
	}
	c.Denied++
}

// StatsSnapshot é a visão agregada servida em GET /stats.
type StatsSnapshot struct {
	Total      Counters                     `json:"total"`
	ByEndpoint map[domain.Endpoint]Counters `json:"byEndpoint"`
	ByKey      map[string]Counters          `json:"byKey,omitempty"`
}

// StatsReader é implementado pelos stores que conseguem devolver agregados.
type StatsReader interface {
	Snapshot(ctx context.Context) (StatsSnapshot, error)
}

// TeeStats repassa cada evento para todos os stores; retorna o primeiro erro.
type TeeStats []domain.StatsStore

func (t TeeStats) Record(ctx context.Context, ev domain.StatsEvent) error {
	var first error
	for _, s := range t {
		if s == nil {
			continue
		}
		if err := s.Record(ctx, ev); err != nil && first == nil {
			first = err
		}
	}
	return first
}
