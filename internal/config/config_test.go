package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setCoordinatorURL(t *testing.T) {
	t.Helper()
	t.Setenv("COORDINATOR_URL", "http://coordinator:8080")
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	setCoordinatorURL(t)

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "querybench.sqlite", cfg.MetaDBPath)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "querybench", cfg.Coordinator.User)
	assert.Equal(t, "querybench", cfg.Coordinator.Source)
	assert.Equal(t, time.Second, cfg.Coordinator.PollInterval)
	assert.Equal(t, 10*time.Minute, cfg.Coordinator.QueryTimeout)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, float64(100), cfg.RateLimitRPS)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.NotEmpty(t, cfg.Warnings) // unauthenticated API warning
}

func TestLoadFromEnv_AllVarsSet(t *testing.T) {
	setCoordinatorURL(t)
	t.Setenv("COORDINATOR_USER", "bench")
	t.Setenv("COORDINATOR_CATALOG", "hive")
	t.Setenv("COORDINATOR_SCHEMA", "tpch")
	t.Setenv("POLL_INTERVAL", "250ms")
	t.Setenv("QUERY_TIMEOUT", "2m")
	t.Setenv("CONCURRENCY", "8")
	t.Setenv("SUBMIT_RPS", "2.5")
	t.Setenv("META_DB_PATH", "/tmp/bench.sqlite")
	t.Setenv("SUITE_DIR", "/etc/querybench/suites")
	t.Setenv("STRIP_LIMIT", "true")
	t.Setenv("API_KEYS", "key-a, key-b,")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "bench", cfg.Coordinator.User)
	assert.Equal(t, "hive", cfg.Coordinator.Catalog)
	assert.Equal(t, "tpch", cfg.Coordinator.Schema)
	assert.Equal(t, 250*time.Millisecond, cfg.Coordinator.PollInterval)
	assert.Equal(t, 2*time.Minute, cfg.Coordinator.QueryTimeout)
	assert.Equal(t, 8, cfg.Concurrency)
	assert.Equal(t, 2.5, cfg.SubmitRPS)
	assert.Equal(t, "/tmp/bench.sqlite", cfg.MetaDBPath)
	assert.Equal(t, "/etc/querybench/suites", cfg.SuiteDir)
	assert.True(t, cfg.StripLimit)
	assert.Equal(t, []string{"key-a", "key-b"}, cfg.APIKeys)
	assert.Empty(t, cfg.Warnings)
}

func TestLoadFromEnv_MissingCoordinatorURL(t *testing.T) {
	t.Setenv("COORDINATOR_URL", "")

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COORDINATOR_URL")
}

func TestLoadFromEnv_BadCoordinatorURL(t *testing.T) {
	t.Setenv("COORDINATOR_URL", "coordinator:8080")

	_, err := LoadFromEnv()
	require.Error(t, err)
}

func TestLoadFromEnv_BadPollInterval(t *testing.T) {
	setCoordinatorURL(t)
	t.Setenv("POLL_INTERVAL", "fast")

	_, err := LoadFromEnv()
	require.Error(t, err)
}

func TestLoadFromEnv_ExtraHeaders(t *testing.T) {
	setCoordinatorURL(t)
	t.Setenv("COORDINATOR_HEADERS", "X-Trino-Client-Tags: nightly; X-Custom: v1")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"X-Trino-Client-Tags": "nightly",
		"X-Custom":            "v1",
	}, cfg.Coordinator.ExtraHeaders)
}

func TestLoadFromEnv_Schedules(t *testing.T) {
	setCoordinatorURL(t)
	t.Setenv("SCHEDULES", "smoke@0 2 * * *; tpch@30 4 * * 1")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	require.Len(t, cfg.Schedules, 2)
	assert.Equal(t, ScheduleEntry{Suite: "smoke", Cron: "0 2 * * *"}, cfg.Schedules[0])
	assert.Equal(t, ScheduleEntry{Suite: "tpch", Cron: "30 4 * * 1"}, cfg.Schedules[1])
}

func TestLoadFromEnv_BadSchedule(t *testing.T) {
	setCoordinatorURL(t)
	t.Setenv("SCHEDULES", "smoke-without-cron")

	_, err := LoadFromEnv()
	require.Error(t, err)
}

func TestLoadFromEnv_ProductionRequiresAuth(t *testing.T) {
	setCoordinatorURL(t)
	t.Setenv("ENV", "production")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://bench.example.com")

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET or API_KEYS")
}

func TestLoadFromEnv_ProductionRejectsCORSWildcard(t *testing.T) {
	setCoordinatorURL(t)
	t.Setenv("ENV", "production")
	t.Setenv("JWT_SECRET", "shh")

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CORS")
}

func TestSlogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		cfg := Config{LogLevel: in}
		assert.Equal(t, want, cfg.SlogLevel(), "level %q", in)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "# comment\nDOTENV_TEST_KEY=hello\nDOTENV_QUOTED='world'\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("DOTENV_TEST_KEY", "")
	t.Setenv("DOTENV_QUOTED", "")

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "hello", os.Getenv("DOTENV_TEST_KEY"))
	assert.Equal(t, "world", os.Getenv("DOTENV_QUOTED"))
}

func TestLoadDotEnv_Missing(t *testing.T) {
	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "absent.env")))
}
