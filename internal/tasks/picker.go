// Package tasks assigns open tasks to users, enforcing the per-user
// cooldown between assignments.
package tasks

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/stitchlabs/stitch-bot/internal/models"
	"github.com/stitchlabs/stitch-bot/internal/storage"
	"go.uber.org/zap"
)

// DefaultCooldown is the minimum interval between two assignments for
// the same user.
const DefaultCooldown = 24 * time.Hour

type Picker struct {
	storage storage.Storage
	logger  *zap.Logger

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewPicker(store storage.Storage, logger *zap.Logger) *Picker {
	return &Picker{
		storage: store,
		logger:  logger,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// CanRequest reports whether the user may be assigned a task at now.
// A user who has never had a task may always request one; otherwise the
// full cooldown must have elapsed, with exactly-elapsed allowed.
func CanRequest(user *models.User, now time.Time, cooldown time.Duration) bool {
	if user.LastTaskAt == nil {
		return true
	}
	return now.Sub(*user.LastTaskAt) >= cooldown
}

// Pick returns a uniformly random task whose expiry is strictly after
// now, or nil if no task is open. The eligible set is collected first
// and drawn from in memory rather than relying on storage ordering.
func (p *Picker) Pick(ctx context.Context, now time.Time) (*models.Task, error) {
	open, err := p.storage.ListOpenTasks(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("error listing open tasks: %w", err)
	}
	if len(open) == 0 {
		return nil, nil
	}

	p.mu.Lock()
	i := p.rnd.Intn(len(open))
	p.mu.Unlock()

	return open[i], nil
}

// Assign picks a task for the user and durably records the assignment
// time. The caller must already have checked CanRequest and must hold
// the user's session lock so two concurrent requests cannot both pass.
// If recording the timestamp fails the task is not assigned.
func (p *Picker) Assign(ctx context.Context, user *models.User, now time.Time) (*models.Task, error) {
	task, err := p.Pick(ctx, now)
	if err != nil || task == nil {
		return task, err
	}

	if err := p.storage.SetLastTask(ctx, user.TelegramID, now); err != nil {
		return nil, fmt.Errorf("error recording assignment: %w", err)
	}

	p.logger.Info("Assigned task",
		zap.Int64("user_id", user.TelegramID),
		zap.Int64("task_id", task.ID),
		zap.String("task_type", string(task.Type)))

	return task, nil
}
