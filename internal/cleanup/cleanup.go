// Package cleanup implements the nightly retention job: soft-deleted
// schedules and old chat turns are purged for good once the retention
// window has passed.
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// DefaultRetentionDays is how long soft-deleted rows are kept before the
// purge removes them.
const DefaultRetentionDays = 14

// Store is the purge surface of the persistence layer.
type Store interface {
	PurgeDeletedSchedulesBefore(cutoff time.Time) (int64, error)
	PurgeChatMessagesBefore(cutoff time.Time) (int64, error)
}

// Service deletes expired rows.
type Service struct {
	store     Store
	retention time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// NewService creates a cleanup Service. retentionDays <= 0 falls back to
// DefaultRetentionDays.
func NewService(store Store, retentionDays int) *Service {
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}
	return &Service{
		store:     store,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		logger:    slog.Default(),
		now:       time.Now,
	}
}

// Run purges expired schedules and chat turns and reports the counts. It is
// the daily_cleanup job logic.
func (s *Service) Run(ctx context.Context) (string, error) {
	cutoff := s.now().Add(-s.retention)

	schedules, err := s.store.PurgeDeletedSchedulesBefore(cutoff)
	if err != nil {
		return "", fmt.Errorf("purging expired schedules: %w", err)
	}
	if schedules > 0 {
		s.logger.Info("purged expired schedules", "count", schedules)
	}

	chats, err := s.store.PurgeChatMessagesBefore(cutoff)
	if err != nil {
		return "", fmt.Errorf("purging expired chats: %w", err)
	}
	if chats > 0 {
		s.logger.Info("purged expired chats", "count", chats)
	}

	return fmt.Sprintf("Schedules: %d, Chats: %d", schedules, chats), nil
}
