package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"":        zapcore.InfoLevel,
		"DEBUG":   zapcore.DebugLevel,
		"warning": zapcore.WarnLevel,
		" error ": zapcore.ErrorLevel,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	l, err := New("production", "warn", "json")
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))

	l, err = New("development", "debug", "console")
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))

	_, err = New("development", "info", "xml")
	assert.Error(t, err)
}

func TestNewConfig_EnvironmentPicksEncoding(t *testing.T) {
	cfg, err := newConfig("production", "info", "")
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Encoding)

	cfg, err = newConfig("development", "info", "")
	require.NoError(t, err)
	assert.Equal(t, "console", cfg.Encoding)

	cfg, err = newConfig("production", "info", "console")
	require.NoError(t, err)
	assert.Equal(t, "console", cfg.Encoding)
}
