// Package config lê a configuração do gateway das variáveis de ambiente.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"address-gateway/middleware/ratelimit/domain"

	"github.com/joho/godotenv"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendNone   = "none"

	AlgorithmFixedWindow = "fixed_window"
	AlgorithmTokenBucket = "token_bucket"
)

type Config struct {
	ListenAddr string
	Env        string
	LogLevel   string
	LogFormat  string

	ClientIPHeaders        []string
	ClientIPRemoteFallback bool

	RateConvertMax    int
	RateConvertWindow time.Duration
	RateBatchMax      int
	RateBatchWindow   time.Duration
	RateFailOpen      bool

	QuotaBackend    string
	QuotaAlgorithm  string
	QuotaSweepEvery time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	StatsBackend   string
	StatsPrefix    string
	StatsTTL       time.Duration
	StatsBucket    string
	StatsTrackKeys bool

	MetricsEnabled bool

	ConcurrencyMax     int
	ConcurrencyTimeout time.Duration
	BatchWorkers       int

	CORSAllowedOrigins []string
	BCHNetwork         string
}

// Load carrega .env (se existir; variáveis já definidas prevalecem), lê o
// ambiente e valida.
func Load(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}
	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FromEnv lê as variáveis sem validar. Valores que não fazem parse caem no padrão.
func FromEnv() Config {
	cfg := Config{}
	cfg.ListenAddr = getenvDefault("LISTEN_ADDR", ":8080")
	cfg.Env = getenvDefault("APP_ENV", "development")
	cfg.LogLevel = getenvDefault("LOG_LEVEL", "info")
	cfg.LogFormat = getenvDefault("LOG_FORMAT", "")

	cfg.ClientIPHeaders = getenvListDefault("CLIENT_IP_HEADERS", []string{"CF-Connecting-IP", "X-Real-IP", "X-Forwarded-For"})
	cfg.ClientIPRemoteFallback = getenvBoolDefault("CLIENT_IP_REMOTE_FALLBACK", false)

	cfg.RateConvertMax = getenvIntDefault("RATE_CONVERT_MAX", 100)
	cfg.RateConvertWindow = getenvDurationDefault("RATE_CONVERT_WINDOW", time.Minute)
	cfg.RateBatchMax = getenvIntDefault("RATE_BATCH_MAX", 20)
	cfg.RateBatchWindow = getenvDurationDefault("RATE_BATCH_WINDOW", time.Minute)
	cfg.RateFailOpen = getenvBoolDefault("RATE_FAIL_OPEN", false)

	cfg.QuotaBackend = strings.ToLower(getenvDefault("QUOTA_BACKEND", BackendMemory))
	cfg.QuotaAlgorithm = strings.ToLower(getenvDefault("QUOTA_ALGORITHM", AlgorithmFixedWindow))
	cfg.QuotaSweepEvery = getenvDurationDefault("QUOTA_SWEEP_EVERY", 5*time.Minute)

	cfg.RedisAddr = getenvDefault("REDIS_ADDR", "")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.RedisDB = getenvIntDefault("REDIS_DB", 0)
	cfg.RedisPrefix = getenvDefault("REDIS_PREFIX", "quota")

	cfg.StatsBackend = strings.ToLower(getenvDefault("STATS_BACKEND", BackendMemory))
	cfg.StatsPrefix = getenvDefault("STATS_PREFIX", "ratelimit:stats")
	cfg.StatsTTL = getenvDurationDefault("STATS_TTL", 24*time.Hour)
	cfg.StatsBucket = getenvDefault("STATS_BUCKET", "minute")
	cfg.StatsTrackKeys = getenvBoolDefault("STATS_TRACK_KEYS", false)

	cfg.MetricsEnabled = getenvBoolDefault("METRICS_ENABLED", true)

	cfg.ConcurrencyMax = getenvIntDefault("CONCURRENCY_MAX", 100)
	cfg.ConcurrencyTimeout = getenvDurationDefault("CONCURRENCY_TIMEOUT", 0)
	cfg.BatchWorkers = getenvIntDefault("BATCH_WORKERS", 0)

	cfg.CORSAllowedOrigins = getenvListDefault("CORS_ALLOWED_ORIGINS", []string{"*"})
	cfg.BCHNetwork = getenvDefault("BCH_NETWORK", "mainnet")
	return cfg
}

// Validate retorna o primeiro ajuste inválido.
func (c Config) Validate() error {
	if c.RateConvertMax <= 0 {
		return errors.New("RATE_CONVERT_MAX must be > 0")
	}
	if c.RateConvertWindow <= 0 {
		return errors.New("RATE_CONVERT_WINDOW must be > 0")
	}
	if c.RateBatchMax <= 0 {
		return errors.New("RATE_BATCH_MAX must be > 0")
	}
	if c.RateBatchWindow <= 0 {
		return errors.New("RATE_BATCH_WINDOW must be > 0")
	}
	switch c.QuotaBackend {
	case BackendMemory, BackendRedis:
	default:
		return fmt.Errorf("QUOTA_BACKEND must be %q or %q", BackendMemory, BackendRedis)
	}
	switch c.QuotaAlgorithm {
	case AlgorithmFixedWindow:
	case AlgorithmTokenBucket:
		if c.QuotaBackend != BackendMemory {
			return errors.New("QUOTA_ALGORITHM=token_bucket requires QUOTA_BACKEND=memory")
		}
	default:
		return fmt.Errorf("QUOTA_ALGORITHM must be %q or %q", AlgorithmFixedWindow, AlgorithmTokenBucket)
	}
	if c.QuotaSweepEvery <= 0 {
		return errors.New("QUOTA_SWEEP_EVERY must be > 0")
	}
	switch c.StatsBackend {
	case BackendMemory, BackendRedis, BackendNone:
	default:
		return fmt.Errorf("STATS_BACKEND must be %q, %q or %q", BackendMemory, BackendRedis, BackendNone)
	}
	if c.NeedsRedis() && strings.TrimSpace(c.RedisAddr) == "" {
		return errors.New("REDIS_ADDR is required when QUOTA_BACKEND or STATS_BACKEND is redis")
	}
	if b := strings.ToLower(c.StatsBucket); b != "minute" && b != "none" {
		return errors.New(`STATS_BUCKET must be "minute" or "none"`)
	}
	if c.ConcurrencyMax < 0 {
		return errors.New("CONCURRENCY_MAX must be >= 0")
	}
	if c.BatchWorkers < 0 {
		return errors.New("BATCH_WORKERS must be >= 0")
	}
	if len(c.ClientIPHeaders) == 0 && !c.ClientIPRemoteFallback {
		return errors.New("CLIENT_IP_HEADERS must list at least one header")
	}
	return nil
}

func (c Config) NeedsRedis() bool {
	return c.QuotaBackend == BackendRedis || c.StatsBackend == BackendRedis
}

// Policies monta a tabela de cotas por endpoint.
func (c Config) Policies() domain.Policies {
	return domain.Policies{
		domain.EndpointConvert: {MaxRequests: c.RateConvertMax, Window: c.RateConvertWindow},
		domain.EndpointBatch:   {MaxRequests: c.RateBatchMax, Window: c.RateBatchWindow},
	}
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// getenvListDefault separa por vírgula e descarta itens vazios.
func getenvListDefault(k string, def []string) []string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getenvIntDefault(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getenvBoolDefault(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getenvDurationDefault(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
