// Package scheduler runs the recurring jobs: the daily discovery run and the
// weekly cleanup of stale domain rows. Specs are standard five-field cron
// expressions evaluated in UTC.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"domain-finder/internal/common/config"
	"domain-finder/internal/common/logger"
)

// Runner is the pipeline surface the scheduler drives.
type Runner interface {
	Run(ctx context.Context) error
}

// RunnerFunc adapts a plain function to Runner.
type RunnerFunc func(ctx context.Context) error

func (f RunnerFunc) Run(ctx context.Context) error { return f(ctx) }

// Cleaner removes stale rows; it returns how many were deleted.
type Cleaner interface {
	DeleteStale(ctx context.Context, olderThan time.Duration) (int64, error)
}

type Scheduler struct {
	cfg     config.SchedulerConfig
	cron    *cron.Cron
	runner  Runner
	cleaner Cleaner
	logger  logger.Logger
}

func New(cfg config.SchedulerConfig, runner Runner, cleaner Cleaner, log logger.Logger) *Scheduler {
	return &Scheduler{
		cfg:     cfg,
		cron:    cron.New(cron.WithLocation(time.UTC)),
		runner:  runner,
		cleaner: cleaner,
		logger:  log,
	}
}

// Start registers the jobs and starts the cron loop. Registration errors
// are returned before anything runs, so a bad spec fails startup instead of
// silently skipping the job.
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.cfg.Enabled {
		s.logger.Info("Scheduler disabled", nil)
		return nil
	}

	if _, err := s.cron.AddFunc(s.cfg.ScrapeSpec, func() { s.runScrape(ctx) }); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(s.cfg.CleanupSpec, func() { s.runCleanup(ctx) }); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("Scheduler started", map[string]interface{}{
		"scrape_spec":  s.cfg.ScrapeSpec,
		"cleanup_spec": s.cfg.CleanupSpec,
	})

	if s.cfg.RunScrapeOnStart {
		go s.runScrape(ctx)
	}
	return nil
}

// Stop halts the cron loop and waits for any running job to finish.
func (s *Scheduler) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.logger.Info("Scheduler stopped", nil)
}

func (s *Scheduler) runScrape(ctx context.Context) {
	s.logger.Info("Scheduled discovery run starting", nil)
	if err := s.runner.Run(ctx); err != nil {
		s.logger.WithError(err).Error("Scheduled discovery run failed", nil)
	}
}

func (s *Scheduler) runCleanup(ctx context.Context) {
	olderThan := time.Duration(s.cfg.StaleAfterDays) * 24 * time.Hour
	deleted, err := s.cleaner.DeleteStale(ctx, olderThan)
	if err != nil {
		s.logger.WithError(err).Error("Stale-domain cleanup failed", nil)
		return
	}
	s.logger.Info("Stale-domain cleanup finished", map[string]interface{}{
		"deleted":          deleted,
		"stale_after_days": s.cfg.StaleAfterDays,
	})
}
