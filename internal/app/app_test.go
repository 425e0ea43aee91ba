package app

import (
	"net/http"
	"net/http/httptest"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"querybench/internal/config"
	"querybench/internal/db"
)

func newTestApp(t *testing.T, mutate func(*config.Config)) *App {
	t.Helper()
	cfg := &config.Config{
		Coordinator: config.CoordinatorConfig{
			URL:    "http://coordinator.invalid:8080",
			User:   "test",
			Source: "test",
		},
		Concurrency:        2,
		RateLimitRPS:       1000,
		RateLimitBurst:     1000,
		CORSAllowedOrigins: []string{"*"},
	}
	if mutate != nil {
		mutate(cfg)
	}

	writeDB, readDB := db.OpenTestSQLite(t)
	a, err := New(Deps{Cfg: cfg, WriteDB: writeDB, ReadDB: readDB, Logger: nil})
	require.NoError(t, err)
	return a
}

func TestNew_HealthzIsPublic(t *testing.T) {
	a := newTestApp(t, nil)

	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestNew_MetricsIsPublic(t *testing.T) {
	a := newTestApp(t, nil)

	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNew_SuitesServedWithoutAuthWhenUnconfigured(t *testing.T) {
	a := newTestApp(t, nil)

	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/suites", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "smoke")
}

func TestNew_APIRequiresAuthWhenConfigured(t *testing.T) {
	a := newTestApp(t, func(cfg *config.Config) {
		cfg.APIKeys = []string{"bench-key"}
	})

	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/suites", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/v1/suites", nil)
	req.Header.Set("X-API-Key", "bench-key")
	rec = httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
