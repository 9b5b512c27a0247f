package infra

import (
	"context"
	"sync"
	"time"

	"address-gateway/middleware/ratelimit/domain"

	"github.com/cespare/xxhash/v2"
)

const defaultShards = 64

// MemoryQuotaStore implementa domain.QuotaStore com janela fixa em memória.
//
// O mapa é dividido em shards (escolhidos por xxhash da chave do cliente),
// cada um com seu mutex: o check-and-increment é atômico por chave e o Sweep
// trava um shard por vez, sem segurar as admissões dos demais.
type MemoryQuotaStore struct {
	shards []*quotaShard
	now    func() time.Time
}

type quotaShard struct {
	mu      sync.Mutex
	windows map[windowKey]*window
}

type windowKey struct {
	key      domain.Key
	endpoint domain.Endpoint
}

type window struct {
	count   int
	resetAt time.Time
}

type MemoryQuotaOption func(*MemoryQuotaStore)

// WithClock troca a fonte de tempo (testes).
func WithClock(now func() time.Time) MemoryQuotaOption {
	return func(s *MemoryQuotaStore) { s.now = now }
}

// WithShards define o número de shards (mínimo 1).
func WithShards(n int) MemoryQuotaOption {
	return func(s *MemoryQuotaStore) {
		if n < 1 {
			n = 1
		}
		s.shards = newShards(n)
	}
}

func NewMemoryQuotaStore(opts ...MemoryQuotaOption) *MemoryQuotaStore {
	s := &MemoryQuotaStore{
		shards: newShards(defaultShards),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func newShards(n int) []*quotaShard {
	out := make([]*quotaShard, n)
	for i := range out {
		out[i] = &quotaShard{windows: make(map[windowKey]*window)}
	}
	return out
}

func (s *MemoryQuotaStore) shard(key domain.Key) *quotaShard {
	return s.shards[xxhash.Sum64String(string(key))%uint64(len(s.shards))]
}

// Check implementa domain.QuotaStore.
func (s *MemoryQuotaStore) Check(_ context.Context, key domain.Key, endpoint domain.Endpoint, p domain.Policy) (domain.Decision, error) {
	now := s.now()
	sh := s.shard(key)
	wk := windowKey{key: key, endpoint: endpoint}

	sh.mu.Lock()
	defer sh.mu.Unlock()

	w, ok := sh.windows[wk]
	if !ok || !w.resetAt.After(now) {
		w = &window{count: 1, resetAt: now.Add(p.Window)}
		sh.windows[wk] = w
		return domain.Decision{Allowed: true, Limit: p.MaxRequests, Remaining: p.MaxRequests - 1, ResetAt: w.resetAt}, nil
	}

	if w.count >= p.MaxRequests {
		return domain.Decision{Allowed: false, Limit: p.MaxRequests, Remaining: 0, ResetAt: w.resetAt}, nil
	}

	w.count++
	return domain.Decision{Allowed: true, Limit: p.MaxRequests, Remaining: p.MaxRequests - w.count, ResetAt: w.resetAt}, nil
}

// Sweep remove janelas cujo resetAt já passou.
func (s *MemoryQuotaStore) Sweep(ctx context.Context) (int, error) {
	removed := 0
	for _, sh := range s.shards {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		now := s.now()
		sh.mu.Lock()
		for k, w := range sh.windows {
			if !w.resetAt.After(now) {
				delete(sh.windows, k)
				removed++
			}
		}
		sh.mu.Unlock()
	}
	return removed, nil
}

// Len retorna o número de janelas guardadas (expiradas ou não).
func (s *MemoryQuotaStore) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		n += len(sh.windows)
		sh.mu.Unlock()
	}
	return n
}
