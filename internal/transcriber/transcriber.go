package transcriber

import "context"

// Transcriber turns submitted audio into text. Transcription is a
// best-effort enrichment of audio submissions; failures must never
// reject the submission itself.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}
