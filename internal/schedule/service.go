// Package schedule implements ownership-checked CRUD over calendar entries.
// Every read and mutation is scoped to the owning user; a schedule that
// belongs to someone else is reported as not found rather than forbidden.
package schedule

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jeiary/jeiary/internal/storage"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// ErrNotFound is returned when a schedule does not exist or is owned by
// another user.
var ErrNotFound = errors.New("schedule not found")

// ErrInvalidInput is wrapped by all validation failures (bad date/time
// format, end not after start, empty title, missing owner).
var ErrInvalidInput = errors.New("invalid schedule input")

// Store is the persistence surface the service needs.
type Store interface {
	CreateSchedule(sc storage.Schedule) error
	ScheduleByID(id, userID string) (storage.Schedule, error)
	SchedulesByOwnerAndDate(userID, date string) ([]storage.Schedule, error)
	SchedulesByOwnerAndMonth(userID string, year, month int) ([]storage.Schedule, error)
	UpdateSchedule(id string, patch storage.SchedulePatch) (storage.Schedule, error)
	SoftDeleteSchedule(id string) error
}

// Service provides schedule operations for a single storage backend.
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService creates a Service over the given store.
func NewService(store Store) *Service {
	return &Service{store: store, logger: slog.Default()}
}

// CreateInput is the data needed to create a schedule.
type CreateInput struct {
	Title     string
	Date      string // YYYY-MM-DD
	StartTime string // HH:MM
	EndTime   string // HH:MM
	Content   string
}

// Create validates the input and persists a new schedule for userID. An
// empty userID is rejected; a row no account owns would be unreachable
// through every read path.
func (s *Service) Create(in CreateInput, userID string) (storage.Schedule, error) {
	if userID == "" {
		return storage.Schedule{}, fmt.Errorf("%w: owner is required", ErrInvalidInput)
	}
	if in.Title == "" {
		return storage.Schedule{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if err := validateDate(in.Date); err != nil {
		return storage.Schedule{}, err
	}
	if err := validateTimeRange(in.StartTime, in.EndTime); err != nil {
		return storage.Schedule{}, err
	}

	now := time.Now()
	sc := storage.Schedule{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     in.Title,
		Date:      in.Date,
		StartTime: in.StartTime,
		EndTime:   in.EndTime,
		Content:   in.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateSchedule(sc); err != nil {
		return storage.Schedule{}, fmt.Errorf("creating schedule: %w", err)
	}

	s.logger.Info("schedule created", "schedule_id", sc.ID, "user_id", userID, "date", sc.Date)
	return sc, nil
}

// ByID returns the schedule with the given ID if userID owns it.
func (s *Service) ByID(id, userID string) (storage.Schedule, error) {
	sc, err := s.store.ScheduleByID(id, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return storage.Schedule{}, ErrNotFound
	}
	if err != nil {
		return storage.Schedule{}, fmt.Errorf("loading schedule %s: %w", id, err)
	}
	return sc, nil
}

// ByDate returns userID's schedules on the given YYYY-MM-DD date, ordered by
// start time.
func (s *Service) ByDate(userID, date string) ([]storage.Schedule, error) {
	if err := validateDate(date); err != nil {
		return nil, err
	}
	return s.store.SchedulesByOwnerAndDate(userID, date)
}

// ByMonth returns userID's schedules within the given calendar month,
// ordered by date then start time.
func (s *Service) ByMonth(userID string, year, month int) ([]storage.Schedule, error) {
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("%w: month %d out of range", ErrInvalidInput, month)
	}
	return s.store.SchedulesByOwnerAndMonth(userID, year, month)
}

// UpdateInput is a partial schedule update. Nil fields are unchanged.
type UpdateInput struct {
	Title     *string
	Date      *string
	StartTime *string
	EndTime   *string
	Content   *string
}

// Update verifies ownership, validates the changed fields, and applies the
// patch. The resulting time range must still satisfy end > start.
func (s *Service) Update(id string, in UpdateInput, userID string) (storage.Schedule, error) {
	current, err := s.ByID(id, userID)
	if err != nil {
		return storage.Schedule{}, err
	}

	if in.Date != nil {
		if err := validateDate(*in.Date); err != nil {
			return storage.Schedule{}, err
		}
	}
	start := current.StartTime
	if in.StartTime != nil {
		start = *in.StartTime
	}
	end := current.EndTime
	if in.EndTime != nil {
		end = *in.EndTime
	}
	if err := validateTimeRange(start, end); err != nil {
		return storage.Schedule{}, err
	}

	updated, err := s.store.UpdateSchedule(id, storage.SchedulePatch{
		Title:     in.Title,
		Date:      in.Date,
		StartTime: in.StartTime,
		EndTime:   in.EndTime,
		Content:   in.Content,
	})
	if errors.Is(err, storage.ErrNotFound) {
		return storage.Schedule{}, ErrNotFound
	}
	if err != nil {
		return storage.Schedule{}, fmt.Errorf("updating schedule %s: %w", id, err)
	}

	s.logger.Info("schedule updated", "schedule_id", id, "user_id", userID)
	return updated, nil
}

// Delete verifies ownership and soft-deletes the schedule.
func (s *Service) Delete(id, userID string) error {
	if _, err := s.ByID(id, userID); err != nil {
		return err
	}
	if err := s.store.SoftDeleteSchedule(id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("deleting schedule %s: %w", id, err)
	}

	s.logger.Info("schedule deleted", "schedule_id", id, "user_id", userID)
	return nil
}

func validateDate(date string) error {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return fmt.Errorf("%w: date %q is not YYYY-MM-DD", ErrInvalidInput, date)
	}
	return nil
}

func validateTimeRange(start, end string) error {
	st, err := time.Parse(timeLayout, start)
	if err != nil {
		return fmt.Errorf("%w: start time %q is not HH:MM", ErrInvalidInput, start)
	}
	et, err := time.Parse(timeLayout, end)
	if err != nil {
		return fmt.Errorf("%w: end time %q is not HH:MM", ErrInvalidInput, end)
	}
	if !et.After(st) {
		return fmt.Errorf("%w: end time %s must be after start time %s", ErrInvalidInput, end, start)
	}
	return nil
}
