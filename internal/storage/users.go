package storage

import (
	"database/sql"
	"fmt"
)

// CreateUser inserts a user. ID, Token, and CreatedAt must be set by the caller.
func (s *Store) CreateUser(u User) error {
	_, err := s.db.Exec(`
		INSERT INTO users (id, name, token, created_at)
		VALUES (?, ?, ?, ?)`,
		u.ID, u.Name, u.Token, formatTime(u.CreatedAt),
	)
	return err
}

// UserByToken looks up a user by its API bearer token.
func (s *Store) UserByToken(token string) (User, error) {
	var u User
	var createdAt string
	err := s.db.QueryRow(`
		SELECT id, name, token, created_at FROM users WHERE token = ?`, token,
	).Scan(&u.ID, &u.Name, &u.Token, &createdAt)
	if err == sql.ErrNoRows {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	t, err := parseTime(createdAt)
	if err != nil {
		return User{}, fmt.Errorf("user %s: %w", u.ID, err)
	}
	u.CreatedAt = t
	return u, nil
}

// Users returns all users ordered by creation time. Used by the morning
// briefing job to fan out over every account.
func (s *Store) Users() ([]User, error) {
	rows, err := s.db.Query(`SELECT id, name, token, created_at FROM users ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		var createdAt string
		if err := rows.Scan(&u.ID, &u.Name, &u.Token, &createdAt); err != nil {
			return nil, err
		}
		t, err := parseTime(createdAt)
		if err != nil {
			return nil, fmt.Errorf("user %s: %w", u.ID, err)
		}
		u.CreatedAt = t
		users = append(users, u)
	}
	return users, rows.Err()
}
