package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"address-gateway/address"
	"address-gateway/api"
	"address-gateway/config"
	"address-gateway/logging"
	"address-gateway/metrics"
	"address-gateway/middleware/admission"
	"address-gateway/middleware/ratelimit"
	"address-gateway/middleware/ratelimit/domain"
	"address-gateway/middleware/ratelimit/infra"
	"address-gateway/middleware/validation"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger, err := logging.New(cfg.Env, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("gateway stopped", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	network, err := address.NetworkByName(cfg.BCHNetwork)
	if err != nil {
		return err
	}

	var rdb *redis.Client
	if cfg.NeedsRedis() {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer func() { _ = rdb.Close() }()

		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_, err := rdb.Ping(pingCtx).Result()
		cancel()
		if err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
	}

	var m *metrics.Collector
	if cfg.MetricsEnabled {
		m = metrics.NewCollector("", nil)
	}

	store := quotaStore(cfg, rdb)
	statsReader, stats := statsStores(cfg, rdb, m)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	infra.StartJanitor(ctx, store, cfg.QuotaSweepEvery, func(removed int, err error) {
		if err != nil {
			logger.Warn("quota sweep failed", zap.Error(err))
			return
		}
		logger.Debug("quota sweep", zap.Int("removed", removed))
	})

	resolve := ratelimit.HeaderKeyFunc(cfg.ClientIPHeaders, cfg.ClientIPRemoteFallback)
	policies := cfg.Policies()
	pipeline := admission.New(admission.Options{
		Resolve: resolve,
		Limiter: ratelimit.NewLimiter(ratelimit.Options{
			Store:    store,
			Policies: policies,
			Stats:    stats,
			FailOpen: cfg.RateFailOpen,
			Logger:   logger,
		}),
		Validator: validation.New(validation.DefaultRules()),
		Logger:    logger,
		Observer:  m,
	})

	router := api.NewRouter(api.Deps{
		Pipeline:     pipeline,
		Codec:        address.NewBCH(network),
		Policies:     policies,
		Resolve:      resolve,
		Metrics:      m,
		Stats:        statsReader,
		Logger:       logger,
		CORSOrigins:  cfg.CORSAllowedOrigins,
		BatchWorkers: cfg.BatchWorkers,
	})

	var pool domain.SlotPool
	if cfg.ConcurrencyMax > 0 {
		pool = infra.NewChanPool(cfg.ConcurrencyMax)
		m.WatchInFlight(pool.InUse)
	}
	h := ratelimit.ConcurrencyMiddleware(ratelimit.ConcurrencyOptions{
		Max:            cfg.ConcurrencyMax,
		AcquireTimeout: cfg.ConcurrencyTimeout,
		Pool:           pool,
		OnReject:       func(*http.Request) { m.ObserveOverload() },
	})(router)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("gateway listening",
		zap.String("addr", cfg.ListenAddr),
		zap.String("env", cfg.Env),
		zap.String("network", network.Name),
	)
	logger.Info("quota",
		zap.String("backend", cfg.QuotaBackend),
		zap.String("algorithm", cfg.QuotaAlgorithm),
		zap.Int("convertMax", cfg.RateConvertMax),
		zap.Duration("convertWindow", cfg.RateConvertWindow),
		zap.Int("batchMax", cfg.RateBatchMax),
		zap.Duration("batchWindow", cfg.RateBatchWindow),
		zap.Strings("clientIPHeaders", cfg.ClientIPHeaders),
		zap.Bool("failOpen", cfg.RateFailOpen),
	)
	logger.Info("stats",
		zap.String("backend", cfg.StatsBackend),
		zap.Bool("metrics", cfg.MetricsEnabled),
	)
	logger.Info("concurrency",
		zap.Int("max", cfg.ConcurrencyMax),
		zap.Duration("acquireTimeout", cfg.ConcurrencyTimeout),
		zap.Int("batchWorkers", cfg.BatchWorkers),
	)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	logger.Info("gateway stopped")
	return nil
}

func quotaStore(cfg config.Config, rdb *redis.Client) domain.QuotaStore {
	switch {
	case cfg.QuotaBackend == config.BackendRedis:
		return infra.NewRedisQuotaStore(rdb, infra.WithQuotaPrefix(cfg.RedisPrefix))
	case cfg.QuotaAlgorithm == config.AlgorithmTokenBucket:
		// idle TTL = maior janela; depois disso o bucket estaria cheio de novo
		return infra.NewTokenBucketStore(infra.WithIdleTTL(max(cfg.RateConvertWindow, cfg.RateBatchWindow)))
	default:
		return infra.NewMemoryQuotaStore()
	}
}

// statsStores devolve o leitor servido em GET /stats (nil quando não há) e o
// tee de todos os destinos de estatística ativos.
func statsStores(cfg config.Config, rdb *redis.Client, m *metrics.Collector) (infra.StatsReader, domain.StatsStore) {
	var tee infra.TeeStats
	if m != nil {
		tee = append(tee, m)
	}

	var reader infra.StatsReader
	switch cfg.StatsBackend {
	case config.BackendMemory:
		mem := infra.NewMemoryStatsStore(infra.WithTrackKeys(cfg.StatsTrackKeys))
		tee = append(tee, mem)
		reader = mem
	case config.BackendRedis:
		st := infra.NewRedisStatsStore(
			rdb,
			infra.WithStatsPrefix(cfg.StatsPrefix),
			infra.WithStatsTTL(cfg.StatsTTL),
			infra.WithStatsBucket(cfg.StatsBucket),
			infra.WithStatsTrackKeys(cfg.StatsTrackKeys),
		)
		tee = append(tee, st)
		reader = st
	}

	if len(tee) == 0 {
		return reader, nil
	}
	return reader, tee
}
