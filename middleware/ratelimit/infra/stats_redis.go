package infra

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"address-gateway/middleware/ratelimit/domain"

	"github.com/redis/go-redis/v9"
)

// RedisStatsStore persiste contadores de decisão em hashes Redis:
//
//	<prefix>:total                 allowed|denied
//	<prefix>:endpoint:<endpoint>   allowed|denied
//	<prefix>:minute:<yyyymmddhhmm> <endpoint>:allowed|denied   (expira em ttl)
//	<prefix>:key:<client>          <endpoint>:allowed|denied   (expira em ttl)
//
// total e endpoint são cumulativos e não expiram.
type RedisStatsStore struct {
	rdb *redis.Client

	prefix    string
	ttl       time.Duration
	perMinute bool
	trackKeys bool
}

type RedisStatsOption func(*RedisStatsStore)

func WithStatsPrefix(prefix string) RedisStatsOption {
	return func(s *RedisStatsStore) {
		if p := strings.Trim(prefix, ":"); p != "" {
			s.prefix = p
		}
	}
}

func WithStatsTTL(d time.Duration) RedisStatsOption {
	return func(s *RedisStatsStore) { s.ttl = d }
}

// WithStatsBucket: "minute" liga a série por minuto; qualquer outro valor desliga.
func WithStatsBucket(bucket string) RedisStatsOption {
	return func(s *RedisStatsStore) {
		s.perMinute = strings.EqualFold(strings.TrimSpace(bucket), "minute")
	}
}

// WithStatsTrackKeys guarda contadores por cliente. Cuidado com cardinalidade.
func WithStatsTrackKeys(track bool) RedisStatsOption {
	return func(s *RedisStatsStore) { s.trackKeys = track }
}

func NewRedisStatsStore(rdb *redis.Client, opts ...RedisStatsOption) *RedisStatsStore {
	s := &RedisStatsStore{
		rdb:       rdb,
		prefix:    "ratelimit:stats",
		ttl:       24 * time.Hour,
		perMinute: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStatsStore) key(parts ...string) string {
	return s.prefix + ":" + strings.Join(parts, ":")
}

func decisionField(allowed bool) string {
	if allowed {
		return "allowed"
	}
	return "denied"
}

// Record grava o evento num único pipeline (um round trip).
func (s *RedisStatsStore) Record(ctx context.Context, ev domain.StatsEvent) error {
	if s == nil || s.rdb == nil {
		return nil
	}

	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	decision := decisionField(ev.Allowed)
	scoped := string(ev.Endpoint) + ":" + decision

	pipe := s.rdb.Pipeline()
	pipe.HIncrBy(ctx, s.key("total"), decision, 1)
	if ev.Endpoint != "" {
		pipe.HIncrBy(ctx, s.key("endpoint", string(ev.Endpoint)), decision, 1)
	}

	if s.perMinute {
		s.incrExpiring(ctx, pipe, s.key("minute", at.UTC().Format("200601021504")), scoped)
	}
	if k := strings.TrimSpace(string(ev.Key)); s.trackKeys && k != "" {
		s.incrExpiring(ctx, pipe, s.key("key", k), scoped)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis stats record: %w", err)
	}
	return nil
}

func (s *RedisStatsStore) incrExpiring(ctx context.Context, pipe redis.Pipeliner, key, field string) {
	pipe.HIncrBy(ctx, key, field, 1)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
}

// Snapshot implementa StatsReader com os contadores cumulativos (sem ByKey:
// listar clientes exigiria SCAN no keyspace).
func (s *RedisStatsStore) Snapshot(ctx context.Context) (StatsSnapshot, error) {
	eps := domain.Endpoints()

	pipe := s.rdb.Pipeline()
	total := pipe.HGetAll(ctx, s.key("total"))
	perEndpoint := make([]*redis.MapStringStringCmd, len(eps))
	for i, ep := range eps {
		perEndpoint[i] = pipe.HGetAll(ctx, s.key("endpoint", string(ep)))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return StatsSnapshot{}, fmt.Errorf("redis stats snapshot: %w", err)
	}

	snap := StatsSnapshot{
		Total:      countersFrom(total.Val()),
		ByEndpoint: make(map[domain.Endpoint]Counters, len(eps)),
	}
	for i, ep := range eps {
		snap.ByEndpoint[ep] = countersFrom(perEndpoint[i].Val())
	}
	return snap, nil
}

func countersFrom(h map[string]string) Counters {
	allowed, _ := strconv.ParseInt(h["allowed"], 10, 64)
	denied, _ := strconv.ParseInt(h["denied"], 10, 64)
	return Counters{Allowed: allowed, Denied: denied}
}
