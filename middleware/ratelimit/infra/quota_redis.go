package infra

import (
	"context"
	"fmt"
	"strings"
	"time"

	"address-gateway/middleware/ratelimit/domain"

	"github.com/redis/go-redis/v9"
)

// fixedWindowScript faz o check-and-increment de forma atômica no Redis.
//
// KEYS[1] = chave da janela; ARGV[1] = janela em ms; ARGV[2] = max.
// Retorna {allowed, count, pttl}.
var fixedWindowScript = redis.NewScript(`
local window = tonumber(ARGV[1])
local max = tonumber(ARGV[2])
local count = tonumber(redis.call('GET', KEYS[1]) or '0')
if count >= max then
  local ttl = redis.call('PTTL', KEYS[1])
  if ttl < 0 then
    redis.call('PEXPIRE', KEYS[1], window)
    ttl = window
  end
  return {0, count, ttl}
end
count = redis.call('INCR', KEYS[1])
if count == 1 then
  redis.call('PEXPIRE', KEYS[1], window)
end
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
  redis.call('PEXPIRE', KEYS[1], window)
  ttl = window
end
return {1, count, ttl}
`)

// RedisQuotaStore implementa domain.QuotaStore em Redis, com a mesma semântica
// de janela fixa do MemoryQuotaStore. A expiração fica a cargo do TTL do Redis.
type RedisQuotaStore struct {
	rdb    *redis.Client
	prefix string
	now    func() time.Time
}

type RedisQuotaOption func(*RedisQuotaStore)

func WithQuotaPrefix(prefix string) RedisQuotaOption {
	return func(s *RedisQuotaStore) { s.prefix = strings.Trim(prefix, ":") }
}

func WithRedisClock(now func() time.Time) RedisQuotaOption {
	return func(s *RedisQuotaStore) { s.now = now }
}

func NewRedisQuotaStore(rdb *redis.Client, opts ...RedisQuotaOption) *RedisQuotaStore {
	s := &RedisQuotaStore{
		rdb:    rdb,
		prefix: "quota",
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisQuotaStore) key(key domain.Key, endpoint domain.Endpoint) string {
	return s.prefix + ":" + string(endpoint) + ":" + string(key)
}

// Check implementa domain.QuotaStore.
func (s *RedisQuotaStore) Check(ctx context.Context, key domain.Key, endpoint domain.Endpoint, p domain.Policy) (domain.Decision, error) {
	res, err := fixedWindowScript.Run(ctx, s.rdb, []string{s.key(key, endpoint)},
		p.Window.Milliseconds(), p.MaxRequests).Int64Slice()
	if err != nil {
		return domain.Decision{}, fmt.Errorf("redis quota check: %w", err)
	}
	if len(res) != 3 {
		return domain.Decision{}, fmt.Errorf("redis quota check: unexpected reply %v", res)
	}

	allowed, count, ttl := res[0] == 1, int(res[1]), time.Duration(res[2])*time.Millisecond
	dec := domain.Decision{
		Allowed: allowed,
		Limit:   p.MaxRequests,
		ResetAt: s.now().Add(ttl),
	}
	if allowed {
		dec.Remaining = max(0, p.MaxRequests-count)
	}
	return dec, nil
}

// Sweep é no-op: o Redis expira as janelas sozinho.
func (s *RedisQuotaStore) Sweep(context.Context) (int, error) { return 0, nil }
