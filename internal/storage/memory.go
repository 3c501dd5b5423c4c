package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/stitchlabs/stitch-bot/internal/models"
)

// MemoryStorage keeps everything in process memory. Used for local runs
// and tests; data does not survive a restart.
type MemoryStorage struct {
	mu          sync.RWMutex
	users       map[int64]*models.User
	tasks       map[int64]*models.Task
	submissions map[string]*models.Submission
	nextTaskID  int64
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		users:       make(map[int64]*models.User),
		tasks:       make(map[int64]*models.Task),
		submissions: make(map[string]*models.Submission),
	}
}

func (s *MemoryStorage) GetUser(ctx context.Context, telegramID int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.users[telegramID]
	if !exists {
		return nil, ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *MemoryStorage) UpsertWallet(ctx context.Context, telegramID int64, wallet string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.users[telegramID]
	if !exists {
		user = &models.User{
			TelegramID: telegramID,
			CreatedAt:  time.Now(),
		}
		s.users[telegramID] = user
	}
	user.WalletAddress = wallet

	copied := *user
	return &copied, nil
}

func (s *MemoryStorage) SetLastTask(ctx context.Context, telegramID int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.users[telegramID]
	if !exists {
		return ErrUserNotFound
	}
	ts := at
	user.LastTaskAt = &ts
	return nil
}

func (s *MemoryStorage) CreateTask(ctx context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now()
	}
	if !task.ExpiresAt.After(task.CreatedAt) {
		return fmt.Errorf("task expiry %v is not after creation %v", task.ExpiresAt, task.CreatedAt)
	}

	s.nextTaskID++
	task.ID = s.nextTaskID
	copied := *task
	s.tasks[task.ID] = &copied
	return nil
}

func (s *MemoryStorage) GetTask(ctx context.Context, id int64) (*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, exists := s.tasks[id]
	if !exists {
		return nil, ErrTaskNotFound
	}
	copied := *task
	return &copied, nil
}

func (s *MemoryStorage) ListOpenTasks(ctx context.Context, now time.Time) ([]*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var open []*models.Task
	for _, task := range s.tasks {
		if task.Open(now) {
			copied := *task
			open = append(open, &copied)
		}
	}
	return open, nil
}

func (s *MemoryStorage) CreateSubmission(ctx context.Context, sub *models.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.submissions[sub.ID]; exists {
		return fmt.Errorf("submission %s already exists", sub.ID)
	}
	copied := *sub
	s.submissions[sub.ID] = &copied
	return nil
}

// SubmissionCount reports the number of stored submissions for a user.
// Test helper; not part of the Storage interface.
func (s *MemoryStorage) SubmissionCount(userID int64) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, sub := range s.submissions {
		if sub.UserID == userID {
			n++
		}
	}
	return n
}

func (s *MemoryStorage) Close() error {
	// Nothing to close for in-memory storage
	return nil
}
