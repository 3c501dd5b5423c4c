package transcriber

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

type WhisperTranscriber struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

func NewWhisperTranscriber(apiKey string, model string, logger *zap.Logger) *WhisperTranscriber {
	if model == "" {
		model = openai.Whisper1
	}
	return &WhisperTranscriber{
		client: openai.NewClient(apiKey),
		model:  model,
		logger: logger,
	}
}

// Transcribe sends the audio to the speech-to-text API. The filename is
// only used by the API to infer the container format.
func (t *WhisperTranscriber) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	resp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.model,
		Reader:   bytes.NewReader(audio),
		FilePath: filename,
	})
	if err != nil {
		return "", fmt.Errorf("failed to transcribe audio: %w", err)
	}

	text := strings.TrimSpace(resp.Text)
	t.logger.Debug("Transcribed audio submission",
		zap.Int("audio_bytes", len(audio)),
		zap.Int("transcript_chars", len(text)))

	return text, nil
}
