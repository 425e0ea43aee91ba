// Package app provides application-level wiring for the benchmark server:
// repositories, the coordinator client, the benchmark service, the scheduler,
// and the HTTP router.
package app

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"querybench/internal/api"
	"querybench/internal/config"
	"querybench/internal/coordinator"
	"querybench/internal/db/repository"
	"querybench/internal/metrics"
	"querybench/internal/middleware"
	"querybench/internal/service/benchmark"
	"querybench/internal/suite"
)

// Deps holds the external dependencies that main() must provide: database
// handles, config, and the logger.
type Deps struct {
	Cfg     *config.Config
	WriteDB *sql.DB
	ReadDB  *sql.DB
	Logger  *slog.Logger
}

// App holds the fully-wired application.
type App struct {
	Benchmark *benchmark.Service
	Scheduler *benchmark.Scheduler
	Router    chi.Router
}

// New wires repositories, suite sources, the coordinator client, and the
// benchmark service from the provided deps, and assembles the HTTP router.
func New(deps Deps) (*App, error) {
	cfg := deps.Cfg
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}

	suites, err := suite.Load(cfg.SuiteDir, suite.LoadOptions{StripLimit: cfg.StripLimit})
	if err != nil {
		return nil, fmt.Errorf("load suites: %w", err)
	}

	runner := coordinator.NewClient(cfg.Coordinator.URL, coordinator.Options{
		Headers:      coordinatorHeaders(cfg.Coordinator),
		PollInterval: cfg.Coordinator.PollInterval,
		Timeout:      cfg.Coordinator.QueryTimeout,
		Logger:       deps.Logger.With("component", "coordinator"),
	})

	runRepo := repository.NewBenchmarkRunRepo(deps.WriteDB, deps.ReadDB)
	resultRepo := repository.NewQueryResultRepo(deps.WriteDB, deps.ReadDB)

	svc := benchmark.NewService(
		runRepo, resultRepo, suites, runner,
		benchmark.Config{
			DefaultConcurrency: cfg.Concurrency,
			SubmitRPS:          cfg.SubmitRPS,
		},
		deps.Logger.With("component", "benchmark"),
	)

	entries := make([]benchmark.ScheduleEntry, len(cfg.Schedules))
	for i, s := range cfg.Schedules {
		entries[i] = benchmark.ScheduleEntry{Suite: s.Suite, Cron: s.Cron}
	}
	sched := benchmark.NewScheduler(svc, entries, deps.Logger.With("component", "scheduler"))

	metrics.MustRegister()

	return &App{
		Benchmark: svc,
		Scheduler: sched,
		Router:    newRouter(cfg, svc, deps.Logger),
	}, nil
}

// coordinatorHeaders builds the identity headers sent on every statement
// request. Extra headers override the computed ones on name collision.
func coordinatorHeaders(c config.CoordinatorConfig) map[string]string {
	headers := map[string]string{
		"X-Trino-User":   c.User,
		"X-Trino-Source": c.Source,
	}
	if c.Catalog != "" {
		headers["X-Trino-Catalog"] = c.Catalog
	}
	if c.Schema != "" {
		headers["X-Trino-Schema"] = c.Schema
	}
	for name, value := range c.ExtraHeaders {
		headers[name] = value
	}
	return headers
}

func newRouter(cfg *config.Config, svc *benchmark.Service, logger *slog.Logger) chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-API-Key", "X-Request-ID"},
		MaxAge:         300,
	}))
	r.Use(middleware.RateLimiter(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		Burst:             cfg.RateLimitBurst,
	}))

	// Public endpoints
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	handler := api.NewHandler(svc, logger.With("component", "api"))
	r.Route("/v1", func(r chi.Router) {
		if cfg.JWTSecret != "" || len(cfg.APIKeys) > 0 {
			r.Use(middleware.Auth([]byte(cfg.JWTSecret), cfg.APIKeys))
		}
		r.Mount("/", handler.Routes())
	})

	return r
}
