package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"address-gateway/middleware/ratelimit/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, []string{"CF-Connecting-IP", "X-Real-IP", "X-Forwarded-For"}, cfg.ClientIPHeaders)
	assert.False(t, cfg.ClientIPRemoteFallback)
	assert.Equal(t, BackendMemory, cfg.QuotaBackend)
	assert.Equal(t, AlgorithmFixedWindow, cfg.QuotaAlgorithm)
	assert.Equal(t, 5*time.Minute, cfg.QuotaSweepEvery)
	assert.Equal(t, domain.DefaultPolicies(), cfg.Policies())
	assert.Empty(t, cfg.LogFormat, "the environment picks the encoder")
	assert.Zero(t, cfg.ConcurrencyTimeout)
	require.NoError(t, cfg.Validate())
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("RATE_CONVERT_MAX", "5")
	t.Setenv("RATE_CONVERT_WINDOW", "10s")
	t.Setenv("CLIENT_IP_HEADERS", " X-Client-IP , ,X-Real-IP")
	t.Setenv("QUOTA_BACKEND", "REDIS")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("RATE_BATCH_MAX", "not-a-number")

	cfg := FromEnv()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, domain.Policy{MaxRequests: 5, Window: 10 * time.Second}, cfg.Policies()[domain.EndpointConvert])
	assert.Equal(t, 20, cfg.RateBatchMax, "unparsable value falls back to the default")
	assert.Equal(t, []string{"X-Client-IP", "X-Real-IP"}, cfg.ClientIPHeaders)
	assert.Equal(t, BackendRedis, cfg.QuotaBackend)
	assert.True(t, cfg.NeedsRedis())
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"zero max", map[string]string{"RATE_CONVERT_MAX": "0"}, "RATE_CONVERT_MAX must be > 0"},
		{"redis without addr", map[string]string{"STATS_BACKEND": "redis"}, "REDIS_ADDR is required when QUOTA_BACKEND or STATS_BACKEND is redis"},
		{"token bucket on redis", map[string]string{"QUOTA_BACKEND": "redis", "REDIS_ADDR": "x:1", "QUOTA_ALGORITHM": "token_bucket"}, "QUOTA_ALGORITHM=token_bucket requires QUOTA_BACKEND=memory"},
		{"unknown backend", map[string]string{"QUOTA_BACKEND": "etcd"}, `QUOTA_BACKEND must be "memory" or "redis"`},
		{"negative workers", map[string]string{"BATCH_WORKERS": "-1"}, "BATCH_WORKERS must be >= 0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			err := FromEnv().Validate()
			require.Error(t, err)
			assert.Equal(t, tc.want, err.Error())
		})
	}
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("RATE_BATCH_MAX=7\nLISTEN_ADDR=:9999\n"), 0o600))

	// variável já definida prevalece sobre o arquivo
	t.Setenv("LISTEN_ADDR", ":7000")
	t.Setenv("RATE_BATCH_MAX", "")
	os.Unsetenv("RATE_BATCH_MAX")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.RateBatchMax)
	assert.Equal(t, ":7000", cfg.ListenAddr)
	os.Unsetenv("RATE_BATCH_MAX")
}

func TestLoad_MissingFileIgnored(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
}
