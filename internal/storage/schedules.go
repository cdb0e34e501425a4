package storage

import (
	"database/sql"
	"fmt"
	"time"
)

const scheduleColumns = "id, user_id, title, date, start_time, end_time, content, is_deleted, created_at, updated_at"

// CreateSchedule inserts a schedule. ID and timestamps must be set by the caller.
func (s *Store) CreateSchedule(sc Schedule) error {
	_, err := s.db.Exec(`
		INSERT INTO schedules (`+scheduleColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sc.ID, sc.UserID, sc.Title, sc.Date, sc.StartTime, sc.EndTime,
		sc.Content, boolToInt(sc.IsDeleted), formatTime(sc.CreatedAt), formatTime(sc.UpdatedAt),
	)
	return err
}

// ScheduleByID returns the non-deleted schedule with the given ID owned by
// userID. Returns ErrNotFound when it does not exist or belongs to someone
// else; ownership failures are indistinguishable from absence on purpose.
func (s *Store) ScheduleByID(id, userID string) (Schedule, error) {
	row := s.db.QueryRow(`
		SELECT `+scheduleColumns+` FROM schedules
		WHERE id = ? AND user_id = ? AND is_deleted = 0`, id, userID)
	return scanSchedule(row)
}

// SchedulesByOwnerAndDate returns all non-deleted schedules owned by userID
// on the given "YYYY-MM-DD" date, ordered by start time.
func (s *Store) SchedulesByOwnerAndDate(userID, date string) ([]Schedule, error) {
	rows, err := s.db.Query(`
		SELECT `+scheduleColumns+` FROM schedules
		WHERE user_id = ? AND date = ? AND is_deleted = 0
		ORDER BY start_time ASC`, userID, date)
	if err != nil {
		return nil, err
	}
	return collectSchedules(rows)
}

// SchedulesByOwnerAndMonth returns all non-deleted schedules owned by userID
// within the given calendar month, ordered by date then start time.
func (s *Store) SchedulesByOwnerAndMonth(userID string, year, month int) ([]Schedule, error) {
	prefix := fmt.Sprintf("%04d-%02d-", year, month)
	rows, err := s.db.Query(`
		SELECT `+scheduleColumns+` FROM schedules
		WHERE user_id = ? AND date LIKE ? AND is_deleted = 0
		ORDER BY date ASC, start_time ASC`, userID, prefix+"%")
	if err != nil {
		return nil, err
	}
	return collectSchedules(rows)
}

// UpdateSchedule applies the non-nil fields of patch and returns the updated
// row. The caller is expected to have verified ownership already.
func (s *Store) UpdateSchedule(id string, patch SchedulePatch) (Schedule, error) {
	set := "updated_at = ?"
	args := []any{formatTime(time.Now())}

	if patch.Title != nil {
		set += ", title = ?"
		args = append(args, *patch.Title)
	}
	if patch.Date != nil {
		set += ", date = ?"
		args = append(args, *patch.Date)
	}
	if patch.StartTime != nil {
		set += ", start_time = ?"
		args = append(args, *patch.StartTime)
	}
	if patch.EndTime != nil {
		set += ", end_time = ?"
		args = append(args, *patch.EndTime)
	}
	if patch.Content != nil {
		set += ", content = ?"
		args = append(args, *patch.Content)
	}
	args = append(args, id)

	res, err := s.db.Exec("UPDATE schedules SET "+set+" WHERE id = ? AND is_deleted = 0", args...)
	if err != nil {
		return Schedule{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Schedule{}, err
	}
	if n == 0 {
		return Schedule{}, ErrNotFound
	}

	row := s.db.QueryRow(`SELECT `+scheduleColumns+` FROM schedules WHERE id = ?`, id)
	return scanSchedule(row)
}

// SoftDeleteSchedule marks the schedule deleted. The row stays in place until
// the retention cleanup job purges it.
func (s *Store) SoftDeleteSchedule(id string) error {
	res, err := s.db.Exec(`
		UPDATE schedules SET is_deleted = 1, updated_at = ?
		WHERE id = ? AND is_deleted = 0`, formatTime(time.Now()), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// PurgeDeletedSchedulesBefore permanently removes soft-deleted schedules last
// touched before cutoff, returning the number of rows removed.
func (s *Store) PurgeDeletedSchedulesBefore(cutoff time.Time) (int64, error) {
	res, err := s.db.Exec(`
		DELETE FROM schedules WHERE is_deleted = 1 AND updated_at < ?`,
		formatTime(cutoff))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanSchedule(row *sql.Row) (Schedule, error) {
	var sc Schedule
	var deleted int
	var createdAt, updatedAt string
	err := row.Scan(&sc.ID, &sc.UserID, &sc.Title, &sc.Date, &sc.StartTime,
		&sc.EndTime, &sc.Content, &deleted, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return Schedule{}, ErrNotFound
	}
	if err != nil {
		return Schedule{}, err
	}
	return finishSchedule(sc, deleted, createdAt, updatedAt)
}

func collectSchedules(rows *sql.Rows) ([]Schedule, error) {
	defer rows.Close()

	var result []Schedule
	for rows.Next() {
		var sc Schedule
		var deleted int
		var createdAt, updatedAt string
		if err := rows.Scan(&sc.ID, &sc.UserID, &sc.Title, &sc.Date, &sc.StartTime,
			&sc.EndTime, &sc.Content, &deleted, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		sc, err := finishSchedule(sc, deleted, createdAt, updatedAt)
		if err != nil {
			return nil, err
		}
		result = append(result, sc)
	}
	return result, rows.Err()
}

func finishSchedule(sc Schedule, deleted int, createdAt, updatedAt string) (Schedule, error) {
	sc.IsDeleted = deleted != 0
	t, err := parseTime(createdAt)
	if err != nil {
		return Schedule{}, fmt.Errorf("schedule %s: %w", sc.ID, err)
	}
	sc.CreatedAt = t
	t, err = parseTime(updatedAt)
	if err != nil {
		return Schedule{}, fmt.Errorf("schedule %s: %w", sc.ID, err)
	}
	sc.UpdatedAt = t
	return sc, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
