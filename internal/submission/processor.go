// Package submission validates incoming task answers, stores their
// content and writes the durable submission record.
package submission

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stitchlabs/stitch-bot/internal/content"
	"github.com/stitchlabs/stitch-bot/internal/models"
	"github.com/stitchlabs/stitch-bot/internal/storage"
	"github.com/stitchlabs/stitch-bot/internal/transcriber"
	"github.com/stitchlabs/stitch-bot/internal/validate"
	"go.uber.org/zap"
)

// User-recoverable rejections. Anything else returned by the processor
// is a collaborator failure and should be reported as retryable.
var (
	ErrImageTooSmall = errors.New("image smaller than 400x400 pixels")
	ErrInvalidAudio  = errors.New("audio submission rejected")
	ErrEmptyText     = errors.New("text submission is empty")
	ErrWrongContent  = errors.New("content kind does not match the task type")
)

type Processor struct {
	storage     storage.Storage
	content     content.Store
	transcriber transcriber.Transcriber // nil disables transcription
	logger      *zap.Logger
	now         func() time.Time
}

func NewProcessor(store storage.Storage, objects content.Store, tr transcriber.Transcriber, logger *zap.Logger) *Processor {
	return &Processor{
		storage:     store,
		content:     objects,
		transcriber: tr,
		logger:      logger,
		now:         time.Now,
	}
}

// ProcessImage handles photo bytes for an IMAGE task: validate size,
// upload, record. On rejection no submission row is written and the
// caller keeps the task active so the user may retry.
func (p *Processor) ProcessImage(ctx context.Context, userID int64, task *models.Task, data []byte) (*models.Submission, error) {
	if task.Type != models.TaskImage {
		return nil, ErrWrongContent
	}
	if !validate.Image(data) {
		return nil, ErrImageTooSmall
	}

	url, err := p.upload(ctx, data, "jpg", userID)
	if err != nil {
		return nil, err
	}

	return p.save(ctx, userID, task.ID, url, "")
}

// ProcessAudio handles voice bytes for an AUDIO task. When a transcriber
// is configured the accepted audio is transcribed and the text stored
// alongside the submission; transcription failure is logged, not fatal.
func (p *Processor) ProcessAudio(ctx context.Context, userID int64, task *models.Task, data []byte) (*models.Submission, error) {
	if task.Type != models.TaskAudio {
		return nil, ErrWrongContent
	}
	if !validate.Audio(data) {
		return nil, ErrInvalidAudio
	}

	url, err := p.upload(ctx, data, "ogg", userID)
	if err != nil {
		return nil, err
	}

	transcript := ""
	if p.transcriber != nil {
		text, err := p.transcriber.Transcribe(ctx, data, "voice.ogg")
		if err != nil {
			p.logger.Warn("Failed to transcribe audio submission",
				zap.Error(err),
				zap.Int64("user_id", userID),
				zap.Int64("task_id", task.ID))
		} else {
			transcript = text
		}
	}

	return p.save(ctx, userID, task.ID, url, transcript)
}

// ProcessText handles a text answer for a TEXT task. The raw text is
// stored directly; beyond non-emptiness it is not checked against the
// prompt (known gap, kept deliberate).
func (p *Processor) ProcessText(ctx context.Context, userID int64, task *models.Task, text string) (*models.Submission, error) {
	if task.Type != models.TaskText {
		return nil, ErrWrongContent
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	return p.save(ctx, userID, task.ID, text, "")
}

// upload pushes the content to the object store with a single retry.
// Uploads run to completion or failure; there is no mid-upload abort.
func (p *Processor) upload(ctx context.Context, data []byte, ext string, userID int64) (string, error) {
	url, err := p.content.Upload(ctx, data, ext, userID)
	if err == nil {
		return url, nil
	}

	p.logger.Warn("Upload failed, retrying once",
		zap.Error(err),
		zap.Int64("user_id", userID))

	url, err = p.content.Upload(ctx, data, ext, userID)
	if err != nil {
		return "", fmt.Errorf("error uploading content: %w", err)
	}
	return url, nil
}

func (p *Processor) save(ctx context.Context, userID, taskID int64, body, transcript string) (*models.Submission, error) {
	sub := &models.Submission{
		ID:          uuid.New().String(),
		UserID:      userID,
		TaskID:      taskID,
		Content:     body,
		Transcript:  transcript,
		SubmittedAt: p.now(),
		Valid:       true,
	}

	if err := p.storage.CreateSubmission(ctx, sub); err != nil {
		return nil, fmt.Errorf("error saving submission: %w", err)
	}

	p.logger.Info("Recorded submission",
		zap.String("submission_id", sub.ID),
		zap.Int64("user_id", userID),
		zap.Int64("task_id", taskID))

	return sub, nil
}
