package storage

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AppendChatMessage stores one conversation turn for the user.
func (s *Store) AppendChatMessage(userID, role, content string) error {
	_, err := s.db.Exec(`
		INSERT INTO chat_messages (id, user_id, role, content, is_deleted, created_at)
		VALUES (?, ?, ?, ?, 0, ?)`,
		uuid.New().String(), userID, role, content, formatTime(time.Now()),
	)
	return err
}

// RecentChatMessages returns up to limit non-deleted turns for the user,
// newest first. Callers replaying history as LLM context must reverse it.
func (s *Store) RecentChatMessages(userID string, limit int) ([]ChatMessage, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, role, content, is_deleted, created_at
		FROM chat_messages
		WHERE user_id = ? AND is_deleted = 0
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ChatMessage
	for rows.Next() {
		var m ChatMessage
		var deleted int
		var createdAt string
		if err := rows.Scan(&m.ID, &m.UserID, &m.Role, &m.Content, &deleted, &createdAt); err != nil {
			return nil, err
		}
		m.IsDeleted = deleted != 0
		t, err := parseTime(createdAt)
		if err != nil {
			return nil, fmt.Errorf("chat message %s: %w", m.ID, err)
		}
		m.CreatedAt = t
		result = append(result, m)
	}
	return result, rows.Err()
}

// PurgeChatMessagesBefore permanently removes turns created before cutoff,
// returning the number of rows removed.
func (s *Store) PurgeChatMessagesBefore(cutoff time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM chat_messages WHERE created_at < ?`, formatTime(cutoff))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
