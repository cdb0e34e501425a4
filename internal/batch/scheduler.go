package batch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// The two production jobs and their daily triggers (deployment local time).
const (
	JobDailyCleanup    = "daily_cleanup"
	JobMorningBriefing = "morning_briefing"

	CronDailyCleanup    = "0 3 * * *"
	CronMorningBriefing = "0 7 * * *"
)

// Job pairs a name with its trigger expression and logic.
type Job struct {
	Name string
	Spec string
	Run  Logic
}

// Scheduler drives registered jobs on cron triggers and recovers missed
// runs at startup. Constructed once at process start; Start and Shutdown
// are the only mutators.
type Scheduler struct {
	runner  *Runner
	history HistoryStore
	jobs    []Job
	logger  *slog.Logger
	now     func() time.Time

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

// NewScheduler creates a Scheduler executing jobs through runner and
// checking history for recovery decisions.
func NewScheduler(runner *Runner, history HistoryStore, jobs []Job) *Scheduler {
	return &Scheduler{
		runner:  runner,
		history: history,
		jobs:    jobs,
		logger:  slog.Default(),
		now:     time.Now,
	}
}

// Start registers all triggers, starts the trigger engine, and then runs one
// synchronous reconciliation pass so a job missed during downtime executes
// before control returns. Calling Start while running is a no-op; the
// trigger set is rebuilt on every fresh start, so registration replaces any
// prior state.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}

	c := cron.New()
	for _, job := range s.jobs {
		job := job
		if _, err := c.AddFunc(job.Spec, func() {
			s.runner.Run(context.Background(), job.Name, job.Run)
		}); err != nil {
			s.mu.Unlock()
			return err
		}
		s.logger.Info("job scheduled", "job", job.Name, "spec", job.Spec)
	}
	c.Start()
	s.cron = c
	s.running = true
	s.mu.Unlock()

	s.Reconcile(ctx)
	return nil
}

// Reconcile executes every job that has no SUCCESS record today. Safe to
// call repeatedly: once a run succeeds, later passes on the same calendar
// day find its record and skip. A failing job is recorded as FAILED by the
// runner and does not block the other jobs.
func (s *Scheduler) Reconcile(ctx context.Context) {
	now := s.now()
	s.logger.Info("checking for missed batch jobs", "at", now.Format(time.RFC3339))

	for _, job := range s.jobs {
		ran, err := s.history.HasJobSucceededToday(job.Name, now)
		if err != nil {
			s.logger.Error("recovery check failed", "job", job.Name, "error", err)
			continue
		}
		if ran {
			s.logger.Info("job already succeeded today", "job", job.Name)
			continue
		}

		s.logger.Warn("missed job detected, executing now", "job", job.Name)
		s.runner.Run(ctx, job.Name, job.Run)
	}
}

// Shutdown stops the trigger engine. Idempotent; a no-op when not running.
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.cron.Stop()
	s.running = false
	s.logger.Info("scheduler stopped")
}
