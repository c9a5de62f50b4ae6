package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, BackendSQLite, cfg.Store.Backend)
	require.Equal(t, "verdant.db", cfg.Store.SQLite.Path)
	require.Equal(t, "info", cfg.Log.Level)
	require.False(t, cfg.MCP.Enabled)
	require.Empty(t, cfg.Auth.TokenHash)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "verdant.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9000
store:
  backend: redis
  redis:
    url: redis://cache:6379/2
auth:
  token_hash: "$2a$10$abc"
mcp:
  enabled: true
`), 0o644))

	t.Setenv("VERDANT_CONFIG_PATH", path)
	t.Setenv("VERDANT_SERVER_PORT", "9100")
	t.Setenv("VERDANT_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 9100, cfg.Server.Port)
	require.Equal(t, "0.0.0.0", cfg.Server.Host)
	require.Equal(t, BackendRedis, cfg.Store.Backend)
	require.Equal(t, "redis://cache:6379/2", cfg.Store.Redis.URL)
	require.Equal(t, "$2a$10$abc", cfg.Auth.TokenHash)
	require.True(t, cfg.MCP.Enabled)
	require.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_Invalid(t *testing.T) {
	t.Run("port", func(t *testing.T) {
		t.Setenv("VERDANT_SERVER_PORT", "http")
		_, err := Load()
		require.Error(t, err)
	})
	t.Run("backend", func(t *testing.T) {
		t.Setenv("VERDANT_STORE_BACKEND", "postgres")
		_, err := Load()
		require.Error(t, err)
	})
	t.Run("mcp flag", func(t *testing.T) {
		t.Setenv("VERDANT_MCP_ENABLED", "sometimes")
		_, err := Load()
		require.Error(t, err)
	})
	t.Run("missing file", func(t *testing.T) {
		t.Setenv("VERDANT_CONFIG_PATH", filepath.Join(t.TempDir(), "nope.yaml"))
		_, err := Load()
		require.Error(t, err)
	})
}
