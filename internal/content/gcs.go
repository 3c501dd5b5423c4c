package content

import (
	"context"
	"fmt"
	"time"

	gcs "cloud.google.com/go/storage"
	"go.uber.org/zap"
)

// GCSStore writes submission content to a Google Cloud Storage bucket.
// Credentials come from the ambient environment (ADC).
type GCSStore struct {
	client *gcs.Client
	bucket string
	logger *zap.Logger
	now    func() time.Time
}

func NewGCSStore(ctx context.Context, bucket string, logger *zap.Logger) (*GCSStore, error) {
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &GCSStore{
		client: client,
		bucket: bucket,
		logger: logger,
		now:    time.Now,
	}, nil
}

func (s *GCSStore) Upload(ctx context.Context, data []byte, ext string, userID int64) (string, error) {
	name := objectName(userID, ext, s.now())

	w := s.client.Bucket(s.bucket).Object(name).NewWriter(ctx)
	if _, err := w.Write(data); err != nil {
		w.Close()
		return "", fmt.Errorf("error writing object %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("error finalizing object %s: %w", name, err)
	}

	s.logger.Debug("Uploaded submission content",
		zap.String("object", name),
		zap.Int64("user_id", userID),
		zap.Int("size", len(data)))

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, name), nil
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}
