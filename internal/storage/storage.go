package storage

import (
	"context"
	"errors"
	"time"

	"github.com/stitchlabs/stitch-bot/internal/models"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrTaskNotFound = errors.New("task not found")
)

// Storage persists users, tasks and submissions. Implementations must be
// safe for concurrent use; per-user ordering is the caller's concern.
type Storage interface {
	// GetUser returns the user registered under the Telegram ID, or
	// ErrUserNotFound if no wallet has ever been connected for it.
	GetUser(ctx context.Context, telegramID int64) (*models.User, error)

	// UpsertWallet sets the user's wallet address, creating the user
	// record on first connect.
	UpsertWallet(ctx context.Context, telegramID int64, wallet string) (*models.User, error)

	// SetLastTask durably records the moment a task was assigned.
	SetLastTask(ctx context.Context, telegramID int64, at time.Time) error

	CreateTask(ctx context.Context, task *models.Task) error
	GetTask(ctx context.Context, id int64) (*models.Task, error)

	// ListOpenTasks returns tasks whose expiry is strictly after now.
	ListOpenTasks(ctx context.Context, now time.Time) ([]*models.Task, error)

	CreateSubmission(ctx context.Context, sub *models.Submission) error

	Close() error
}
