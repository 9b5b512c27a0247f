package domain

import (
	"context"
	"time"
)

// StatsEvent é uma decisão de cota já tomada, pronta para ser contabilizada.
// Key só deve virar dimensão de armazenamento com opt-in (cardinalidade).
type StatsEvent struct {
	Key      Key
	Endpoint Endpoint
	Allowed  bool

	Method string
	Path   string

	At time.Time
}

// StatsStore recebe os eventos de decisão (memória, Redis, Prometheus).
// Falha aqui é best-effort: o Limiter loga e segue com a request.
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}
