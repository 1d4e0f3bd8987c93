package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddrDefaults(t *testing.T) {
	var cfg Config
	require.Equal(t, "0.0.0.0:8000", cfg.Addr())

	cfg.Server.Address = "127.0.0.1"
	cfg.Server.Port = 9000
	require.Equal(t, "127.0.0.1:9000", cfg.Addr())
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
server:
  address: 127.0.0.1
  port: 8080
storage:
  db_path: /tmp/ctx.db
summarize:
  batch_size: 3
  sweep_cron: "0 2 * * *"
responder:
  backend: openai
  model: gpt-4o-mini
security:
  cors:
    allowed_origins: ["https://a.example", "https://b.example"]
  rate_limit:
    rps: 2.5
    burst: 10
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:8080", cfg.Addr())
	require.Equal(t, "/tmp/ctx.db", cfg.Storage.DBPath)
	require.Equal(t, 3, cfg.Summarize.BatchSize)
	require.Equal(t, "0 2 * * *", cfg.Summarize.SweepCron)
	require.Equal(t, "openai", cfg.Responder.Backend)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Security.CORS.AllowedOrigins)
	require.Equal(t, 2.5, cfg.Security.RateLimit.RPS)
	require.Equal(t, 10, cfg.Security.RateLimit.Burst)
	require.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadMissingFileIsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CONTEXTDB_ADDR", "0.0.0.0:9100")
	t.Setenv("CONTEXTDB_DB_PATH", "/data/ctx")
	t.Setenv("CONTEXTDB_BATCH_SIZE", "7")
	t.Setenv("CONTEXTDB_RESPONDER", "OpenAI")
	t.Setenv("CONTEXTDB_CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("CONTEXTDB_RATE_RPS", "3")
	t.Setenv("CONTEXTDB_LOG_LEVEL", "debug")

	var cfg Config
	require.True(t, LoadEnvOverrides(&cfg))
	require.Equal(t, "0.0.0.0:9100", cfg.Addr())
	require.Equal(t, "/data/ctx", cfg.Storage.DBPath)
	require.Equal(t, 7, cfg.Summarize.BatchSize)
	require.Equal(t, "openai", cfg.Responder.Backend)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Security.CORS.AllowedOrigins)
	require.Equal(t, 3.0, cfg.Security.RateLimit.RPS)
	require.Equal(t, "debug", cfg.Logging.Level)
}

func TestEnvAPIKeyPrecedence(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-generic")

	var cfg Config
	LoadEnvOverrides(&cfg)
	require.Equal(t, "sk-generic", cfg.Responder.APIKey)

	t.Setenv("CONTEXTDB_RESPONDER_API_KEY", "sk-specific")
	cfg = Config{}
	LoadEnvOverrides(&cfg)
	require.Equal(t, "sk-specific", cfg.Responder.APIKey)
}

func TestEnvInvalidBatchSizeIgnored(t *testing.T) {
	t.Setenv("CONTEXTDB_BATCH_SIZE", "zero")

	var cfg Config
	require.False(t, LoadEnvOverrides(&cfg))
	require.Equal(t, 0, cfg.Summarize.BatchSize)
}

func TestLoadEffectiveMissingFileFallsBackToEnv(t *testing.T) {
	t.Setenv("CONTEXTDB_PORT", "9200")

	cfg, envUsed, err := LoadEffective(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.True(t, envUsed)
	require.Equal(t, "0.0.0.0:9200", cfg.Addr())
}

func TestResolveConfigPath(t *testing.T) {
	require.Equal(t, "/flag.yaml", ResolveConfigPath("/flag.yaml", true))

	t.Setenv("CONTEXTDB_CONFIG", "/env.yaml")
	require.Equal(t, "/env.yaml", ResolveConfigPath("/default.yaml", false))
	require.Equal(t, "/flag.yaml", ResolveConfigPath("/flag.yaml", true))
}
