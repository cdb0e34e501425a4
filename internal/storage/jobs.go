package storage

import (
	"fmt"
	"time"
)

// RecordJobOutcome appends one job_history row. Rows are never updated or
// deleted by the application; retention is an operator concern.
func (s *Store) RecordJobOutcome(jobName, status, details string) error {
	_, err := s.db.Exec(`
		INSERT INTO job_history (job_name, status, details, created_at)
		VALUES (?, ?, ?, ?)`,
		jobName, status, details, formatTime(time.Now()),
	)
	return err
}

// HasJobSucceededToday reports whether a SUCCESS row exists for jobName whose
// recorded time falls on now's calendar date in now's location. Timestamps
// are stored in UTC, so the local day is converted to a UTC range.
func (s *Store) HasJobSucceededToday(jobName string, now time.Time) (bool, error) {
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.Add(24 * time.Hour)

	var count int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM job_history
		WHERE job_name = ? AND status = ? AND created_at >= ? AND created_at < ?`,
		jobName, JobSuccess, formatTime(dayStart), formatTime(dayEnd),
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// RecentJobRecords returns the latest limit rows for jobName, newest first.
// Used by the status command.
func (s *Store) RecentJobRecords(jobName string, limit int) ([]JobRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, job_name, status, details, created_at
		FROM job_history
		WHERE job_name = ?
		ORDER BY id DESC
		LIMIT ?`, jobName, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []JobRecord
	for rows.Next() {
		var r JobRecord
		var createdAt string
		if err := rows.Scan(&r.ID, &r.JobName, &r.Status, &r.Details, &createdAt); err != nil {
			return nil, err
		}
		t, err := parseTime(createdAt)
		if err != nil {
			return nil, fmt.Errorf("job record %d: %w", r.ID, err)
		}
		r.CreatedAt = t
		result = append(result, r)
	}
	return result, rows.Err()
}
