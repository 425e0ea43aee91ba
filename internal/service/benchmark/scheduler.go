package benchmark

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"

	"querybench/internal/domain"
)

// ScheduleEntry binds a suite to a cron expression.
type ScheduleEntry struct {
	Suite string
	Cron  string
}

// Scheduler triggers recurring benchmark runs on cron schedules.
type Scheduler struct {
	cron    *cron.Cron
	svc     *Service
	entries []ScheduleEntry
	logger  *slog.Logger
}

// NewScheduler creates a scheduler for the given entries.
func NewScheduler(svc *Service, entries []ScheduleEntry, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Scheduler{
		cron:    cron.New(),
		svc:     svc,
		entries: entries,
		logger:  logger,
	}
}

// Start registers all schedule entries and starts the cron loop. Entries with
// an invalid cron expression or unknown suite are skipped with a warning so
// one bad entry cannot keep the rest from running.
func (s *Scheduler) Start() error {
	for _, entry := range s.entries {
		suiteName := entry.Suite

		if _, err := s.svc.suites.Suite(suiteName); err != nil {
			s.logger.Warn("skipping schedule for unknown suite", "suite", suiteName, "error", err)
			continue
		}

		_, err := s.cron.AddFunc(entry.Cron, func() {
			ctx := context.Background()
			run, triggerErr := s.svc.TriggerRun(ctx, suiteName, TriggerOptions{
				TriggerType: domain.TriggerTypeScheduled,
			})
			if triggerErr != nil {
				s.logger.Warn("scheduled trigger failed", "suite", suiteName, "error", triggerErr)
				return
			}
			s.logger.Info("scheduled run triggered", "suite", suiteName, "run_id", run.ID)
		})
		if err != nil {
			s.logger.Warn("invalid cron schedule", "suite", suiteName, "schedule", entry.Cron, "error", err)
			continue
		}

		s.logger.Info("scheduled suite", "suite", suiteName, "schedule", entry.Cron)
	}

	s.cron.Start()
	s.logger.Info("benchmark scheduler started")
	return nil
}

// Stop gracefully stops the cron scheduler.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.logger.Info("benchmark scheduler stopped")
}
