package main

import (
	"log"
	"log/slog"
	"net/http"
	"os"

	_ "github.com/mattn/go-sqlite3"

	"querybench/internal/app"
	"querybench/internal/config"
	internaldb "querybench/internal/db"
)

func main() {
	// Load .env for local development (real env vars take precedence)
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("warning: could not load .env: %v", err)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}

	// writeDB: single-connection pool for serialized writes (WAL + txlock=immediate).
	// readDB:  4-connection pool for concurrent reads (WAL, no txlock).
	writeDB, readDB, err := internaldb.OpenSQLitePair(cfg.MetaDBPath, 4)
	if err != nil {
		log.Fatalf("failed to open results store: %v", err)
	}
	defer writeDB.Close()
	defer readDB.Close()

	// Run migrations on the write pool (DDL requires write access)
	if err := internaldb.RunMigrations(writeDB); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	a, err := app.New(app.Deps{
		Cfg:     cfg,
		WriteDB: writeDB,
		ReadDB:  readDB,
		Logger:  logger,
	})
	if err != nil {
		log.Fatalf("wiring failed: %v", err)
	}

	if err := a.Scheduler.Start(); err != nil {
		log.Fatalf("scheduler failed: %v", err)
	}
	defer a.Scheduler.Stop()

	logger.Info("benchmark API listening",
		"addr", cfg.ListenAddr,
		"coordinator", cfg.Coordinator.URL,
		"schedules", len(cfg.Schedules))
	if err := http.ListenAndServe(cfg.ListenAddr, a.Router); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
