package models

import "time"

type TaskType string

const (
	TaskAudio TaskType = "AUDIO"
	TaskImage TaskType = "IMAGE"
	TaskText  TaskType = "TEXT"
)

// User represents a bot user registered through wallet connect.
// The Telegram user ID is the identity; there is no surrogate key.
type User struct {
	TelegramID    int64      `json:"telegram_id"`
	WalletAddress string     `json:"wallet_address,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	LastTaskAt    *time.Time `json:"last_task_at,omitempty"`
}

// Task is a unit of work offered to users. Tasks are created by operators
// and are read-only to the bot flow.
type Task struct {
	ID        int64     `json:"id"`
	Type      TaskType  `json:"type"`
	Prompt    string    `json:"prompt"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Open reports whether the task can still be assigned at the given time.
// A task whose expiry equals now is already closed.
func (t *Task) Open(now time.Time) bool {
	return t.ExpiresAt.After(now)
}

// Submission records one accepted answer to a task. Content holds raw text
// for TEXT tasks and a content-store URL otherwise. Rows are append-only.
type Submission struct {
	ID          string    `json:"id"`
	UserID      int64     `json:"user_id"`
	TaskID      int64     `json:"task_id"`
	Content     string    `json:"content"`
	Transcript  string    `json:"transcript,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
	Valid       bool      `json:"valid"`
}
