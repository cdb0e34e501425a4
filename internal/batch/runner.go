// Package batch runs named background jobs: a template-method runner that
// records every outcome in job history, and a cron scheduler that re-executes
// jobs missed during downtime.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jeiary/jeiary/internal/storage"
)

// Logic is one job's business logic. It returns a human-readable result
// summary that is stored as the run's detail.
type Logic func(ctx context.Context) (string, error)

// HistoryStore records and queries batch run outcomes.
type HistoryStore interface {
	RecordJobOutcome(jobName, status, details string) error
	HasJobSucceededToday(jobName string, now time.Time) (bool, error)
}

// Runner wraps job logic with logging and outcome persistence. A logic
// failure is recorded as FAILED and swallowed so one bad run does not take
// the scheduler down. A failed history write is logged but never masks the
// run's real outcome.
type Runner struct {
	history HistoryStore
	logger  *slog.Logger
}

// NewRunner creates a Runner writing outcomes to history and log lines to
// logger. Pass nil to log through slog.Default.
func NewRunner(history HistoryStore, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{history: history, logger: logger}
}

// Run executes logic under jobName and records exactly one job history row,
// SUCCESS when logic returned normally, FAILED otherwise.
func (r *Runner) Run(ctx context.Context, jobName string, logic Logic) {
	log := r.logger.With("batch", true, "job", jobName)
	log.Info("starting")

	status := storage.JobFailed
	var details string

	func() {
		defer func() {
			if rec := recover(); rec != nil {
				details = fmt.Sprintf("panic: %v", rec)
				log.Error("panicked", "panic", rec)
			}
		}()

		result, err := logic(ctx)
		if err != nil {
			details = err.Error()
			log.Error("failed", "error", err)
			return
		}
		status = storage.JobSuccess
		details = result
		log.Info("completed", "details", details)
	}()

	if err := r.history.RecordJobOutcome(jobName, status, details); err != nil {
		log.Error("failed to save job history", "error", err)
	}
}
