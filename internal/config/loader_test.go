package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadWritesDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, resolved, err := Load(nil, path)
	require.NoError(t, err)
	require.Equal(t, path, resolved)
	require.Equal(t, Default(), cfg)

	_, err = os.Stat(path)
	require.NoError(t, err, "default config should be written")

	// A second load reads the file that was just written.
	again, _, err := Load(nil, path)
	require.NoError(t, err)
	require.Equal(t, cfg, again)
}

func TestLoadReadsConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("addr: \":7000\"\nlog_level: debug\ndatabase_path: /tmp/ws.db\nrate_limit_burst: 3\n")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, _, err := Load(nil, path)
	require.NoError(t, err)
	require.Equal(t, ":7000", cfg.Addr)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, "/tmp/ws.db", cfg.DatabasePath)
	require.Equal(t, 3, cfg.RateLimitBurst)
	require.Equal(t, Default().JWTIssuer, cfg.JWTIssuer)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("addr: \":7000\"\n"), 0o600))

	t.Setenv("WIRECHAT_ADDR", ":9999")
	t.Setenv("WIRECHAT_RATE_LIMIT_BURST", "7")
	t.Setenv("WIRECHAT_SHUTDOWN_TIMEOUT", "12s")

	cfg, _, err := Load(nil, path)
	require.NoError(t, err)
	require.Equal(t, ":9999", cfg.Addr)
	require.Equal(t, 7, cfg.RateLimitBurst)
	require.Equal(t, 12*time.Second, cfg.ShutdownTimeout)
}

func TestUpdateFromKeepsZeroValues(t *testing.T) {
	cfg := Default()
	cfg.UpdateFrom(Config{Addr: ":1234", JWTTTL: time.Hour})

	require.Equal(t, ":1234", cfg.Addr)
	require.Equal(t, time.Hour, cfg.JWTTTL)
	require.Equal(t, Default().DatabasePath, cfg.DatabasePath)
	require.Equal(t, Default().RateLimitRPS, cfg.RateLimitRPS)
}
