package application

import (
	"context"
	"errors"
	"time"

	"address-gateway/middleware/ratelimit/domain"
)

// ErrNoSlot indica que nenhuma vaga foi obtida dentro do prazo.
var ErrNoSlot = errors.New("no concurrency slot available")

// ConcurrencyService concentra a regra de aquisição/liberação de vagas com timeout,
// sem saber nada sobre HTTP.
type ConcurrencyService struct {
	Pool           domain.SlotPool
	AcquireTimeout time.Duration
}

// Acquire tenta adquirir uma vaga.
//   - Se `AcquireTimeout <= 0`, não espera: só serve uma vaga livre agora.
//   - Se `AcquireTimeout > 0`, espera no máximo o timeout.
//
// Em caso de erro nenhuma vaga foi adquirida e release é nil.
func (s ConcurrencyService) Acquire(ctx context.Context) (release func(), err error) {
	if s.Pool == nil {
		return func() {}, nil
	}

	var cancel context.CancelFunc
	if s.AcquireTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, s.AcquireTimeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
		cancel()
	}
	defer cancel()

	release, ok := s.Pool.Acquire(ctx)
	if !ok {
		return nil, ErrNoSlot
	}
	return release, nil
}
