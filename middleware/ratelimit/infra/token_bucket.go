package infra

import (
	"context"
	"math"
	"sync"
	"time"

	"address-gateway/middleware/ratelimit/domain"

	"golang.org/x/time/rate"
)

// TokenBucketStore é a alternativa à janela fixa baseada em token-bucket
// (x/time/rate), com um limiter por (chave, endpoint) e limpeza de inativos.
//
// Semântica dos headers muda: Remaining = tokens inteiros disponíveis,
// ResetAt = quando o balde enche de novo (ou, se negado, quando 1 token volta).
type TokenBucketStore struct {
	mu      sync.Mutex
	entries map[windowKey]*bucketEntry
	idleTTL time.Duration
	now     func() time.Time
}

type bucketEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

type TokenBucketOption func(*TokenBucketStore)

func WithIdleTTL(d time.Duration) TokenBucketOption {
	return func(s *TokenBucketStore) { s.idleTTL = d }
}

func WithBucketClock(now func() time.Time) TokenBucketOption {
	return func(s *TokenBucketStore) { s.now = now }
}

func NewTokenBucketStore(opts ...TokenBucketOption) *TokenBucketStore {
	s := &TokenBucketStore{
		entries: make(map[windowKey]*bucketEntry),
		idleTTL: 15 * time.Minute,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *TokenBucketStore) limiter(wk windowKey, p domain.Policy, now time.Time) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ent, ok := s.entries[wk]; ok {
		ent.lastSeen = now
		return ent.lim
	}

	lim := rate.NewLimiter(rate.Limit(float64(p.MaxRequests)/p.Window.Seconds()), p.MaxRequests)
	s.entries[wk] = &bucketEntry{lim: lim, lastSeen: now}
	return lim
}

// Check implementa domain.QuotaStore.
func (s *TokenBucketStore) Check(_ context.Context, key domain.Key, endpoint domain.Endpoint, p domain.Policy) (domain.Decision, error) {
	now := s.now()
	lim := s.limiter(windowKey{key: key, endpoint: endpoint}, p, now)

	allowed := lim.AllowN(now, 1)
	tokens := lim.TokensAt(now)
	perSec := float64(lim.Limit())

	dec := domain.Decision{
		Allowed:   allowed,
		Limit:     p.MaxRequests,
		Remaining: int(math.Max(0, math.Floor(tokens))),
	}
	missing := float64(p.MaxRequests) - tokens
	if !allowed {
		missing = 1 - tokens
	}
	dec.ResetAt = now.Add(time.Duration(math.Max(0, missing) / perSec * float64(time.Second)))
	return dec, nil
}

// Sweep remove limiters sem uso há mais de idleTTL.
func (s *TokenBucketStore) Sweep(_ context.Context) (int, error) {
	cutoff := s.now().Add(-s.idleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for k, ent := range s.entries {
		if ent.lastSeen.Before(cutoff) {
			delete(s.entries, k)
			removed++
		}
	}
	return removed, nil
}
