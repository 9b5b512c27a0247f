package application

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"address-gateway/middleware/ratelimit/domain"
)

var (
	ErrUnknownEndpoint = errors.New("no quota policy for endpoint")
	ErrNoStore         = errors.New("no quota store configured")
)

// Service concentra a regra de aplicação do rate limit.
//
// Ele não sabe nada sobre HTTP (headers/status), apenas retorna uma decisão.
type Service struct {
	Store    domain.QuotaStore
	Policies domain.Policies
	Now      func() time.Time
}

// Decide consulta (e incrementa) a janela de (key, endpoint).
//
// Erro do store é devolvido ao chamador, que decide entre fail-open e fail-closed.
// Quando negado, RetryAfter é o tempo até ResetAt arredondado para cima em segundos
// (mínimo 1s).
func (s Service) Decide(ctx context.Context, key domain.Key, endpoint domain.Endpoint) (domain.Decision, error) {
	p, ok := s.Policies[endpoint]
	if !ok || !p.Valid() {
		return domain.Decision{}, fmt.Errorf("%w: %q", ErrUnknownEndpoint, endpoint)
	}
	if s.Store == nil {
		return domain.Decision{}, ErrNoStore
	}

	dec, err := s.Store.Check(ctx, key, endpoint, p)
	if err != nil {
		return domain.Decision{}, err
	}
	if !dec.Allowed {
		now := time.Now
		if s.Now != nil {
			now = s.Now
		}
		dec.RetryAfter = RetryAfter(dec.ResetAt, now())
	}
	return dec, nil
}

// RetryAfter arredonda para cima (em segundos) o tempo até resetAt, com piso de 1s.
func RetryAfter(resetAt, now time.Time) time.Duration {
	secs := math.Ceil(resetAt.Sub(now).Seconds())
	if secs < 1 {
		secs = 1
	}
	return time.Duration(secs) * time.Second
}
