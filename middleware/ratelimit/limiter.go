package ratelimit

import (
	"fmt"
	"net/http"
	"time"

	"address-gateway/middleware/apierror"
	"address-gateway/middleware/ratelimit/application"
	"address-gateway/middleware/ratelimit/domain"
	"address-gateway/middleware/ratelimit/infra"

	"go.uber.org/zap"
)

type Options struct {
	// Store padrão: janela fixa em memória (NewMemoryQuotaStore).
	Store    domain.QuotaStore
	Policies domain.Policies
	Stats    domain.StatsStore
	// FailOpen admite a request quando o store falha (sem headers de cota).
	// Padrão: fail-closed (500).
	FailOpen bool
	Logger   *zap.Logger
	Now      func() time.Time
}

// Limiter é o adapter HTTP do rate limit: chama a camada application,
// registra a decisão nas estatísticas e traduz negação para 429.
type Limiter struct {
	svc      application.Service
	stats    domain.StatsStore
	failOpen bool
	logger   *zap.Logger
	now      func() time.Time
}

func NewLimiter(opts Options) *Limiter {
	if opts.Policies == nil {
		opts.Policies = domain.DefaultPolicies()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Store == nil {
		opts.Store = infra.NewMemoryQuotaStore(infra.WithClock(opts.Now))
	}
	return &Limiter{
		svc: application.Service{
			Store:    opts.Store,
			Policies: opts.Policies,
			Now:      opts.Now,
		},
		stats:    opts.Stats,
		failOpen: opts.FailOpen,
		logger:   opts.Logger,
		now:      opts.Now,
	}
}

// Check aplica a cota de (key, endpoint).
//
// Retorna a decisão (nil quando o store falhou em modo fail-open) e, se a
// request não deve seguir, um *apierror.Error (429 ou 500).
func (l *Limiter) Check(r *http.Request, key domain.Key, ep domain.Endpoint) (*domain.Decision, error) {
	dec, err := l.svc.Decide(r.Context(), key, ep)
	if err != nil {
		if l.failOpen {
			l.logger.Warn("quota store unavailable, failing open",
				zap.String("endpoint", string(ep)), zap.Error(err))
			return nil, nil
		}
		return nil, apierror.Internal(fmt.Errorf("quota check: %w", err))
	}

	if l.stats != nil {
		if err := l.stats.Record(r.Context(), domain.StatsEvent{
			Key:      key,
			Endpoint: ep,
			Allowed:  dec.Allowed,
			Method:   r.Method,
			Path:     r.URL.Path,
			At:       l.now(),
		}); err != nil {
			l.logger.Debug("stats record failed", zap.Error(err))
		}
	}

	if !dec.Allowed {
		secs := int(dec.RetryAfter / time.Second)
		e := apierror.New(apierror.KindRateLimitExceeded, "Rate limit exceeded").
			WithDetail(fmt.Sprintf("Too many requests. Please try again after %d seconds.", secs))
		e.RetryAfter = dec.RetryAfter
		return &dec, e
	}
	return &dec, nil
}
