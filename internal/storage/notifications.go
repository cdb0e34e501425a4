package storage

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CreateNotification stores a notification for the user and returns its ID.
func (s *Store) CreateNotification(userID, notifType, content string) (string, error) {
	id := uuid.New().String()
	_, err := s.db.Exec(`
		INSERT INTO notifications (id, user_id, type, content, is_read, created_at)
		VALUES (?, ?, ?, ?, 0, ?)`,
		id, userID, notifType, content, formatTime(time.Now()),
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

// NotificationsByUser returns up to limit notifications for the user, newest first.
func (s *Store) NotificationsByUser(userID string, limit int) ([]Notification, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, type, content, is_read, created_at
		FROM notifications
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Notification
	for rows.Next() {
		var n Notification
		var read int
		var createdAt string
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Content, &read, &createdAt); err != nil {
			return nil, err
		}
		n.IsRead = read != 0
		t, err := parseTime(createdAt)
		if err != nil {
			return nil, fmt.Errorf("notification %s: %w", n.ID, err)
		}
		n.CreatedAt = t
		result = append(result, n)
	}
	return result, rows.Err()
}

// MarkNotificationRead marks the user's notification as read.
func (s *Store) MarkNotificationRead(id, userID string) error {
	res, err := s.db.Exec(`
		UPDATE notifications SET is_read = 1 WHERE id = ? AND user_id = ?`, id, userID)
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
