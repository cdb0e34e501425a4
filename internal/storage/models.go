package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Job outcome values recorded in job_history.
const (
	JobSuccess = "SUCCESS"
	JobFailed  = "FAILED"
)

// Chat roles stored in chat_messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type User struct {
	ID        string
	Name      string
	Token     string
	CreatedAt time.Time
}

// Schedule is a single calendar entry. Date is "YYYY-MM-DD"; StartTime and
// EndTime are 24-hour "HH:MM" strings.
type Schedule struct {
	ID        string
	UserID    string
	Title     string
	Date      string
	StartTime string
	EndTime   string
	Content   string
	IsDeleted bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SchedulePatch holds the fields of a partial schedule update. Nil fields
// are left unchanged.
type SchedulePatch struct {
	Title     *string
	Date      *string
	StartTime *string
	EndTime   *string
	Content   *string
}

type ChatMessage struct {
	ID        string
	UserID    string
	Role      string
	Content   string
	IsDeleted bool
	CreatedAt time.Time
}

// JobRecord is one append-only row describing a batch run attempt.
type JobRecord struct {
	ID        int64
	JobName   string
	Status    string
	Details   string
	CreatedAt time.Time
}

type Notification struct {
	ID        string
	UserID    string
	Type      string
	Content   string
	IsRead    bool
	CreatedAt time.Time
}
