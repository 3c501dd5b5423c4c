package main

import (
	"context"

	"github.com/stitchlabs/stitch-bot/internal/bot"
	"github.com/stitchlabs/stitch-bot/internal/content"
	"github.com/stitchlabs/stitch-bot/internal/storage"
	"github.com/stitchlabs/stitch-bot/internal/submission"
	"github.com/stitchlabs/stitch-bot/internal/tasks"
	"github.com/stitchlabs/stitch-bot/internal/transcriber"
	"github.com/stitchlabs/stitch-bot/pkg/config"
	"go.uber.org/zap"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Load configuration
	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err), zap.String("path", "config.yaml"))
	}

	ctx := context.Background()

	// Initialize storage
	var store storage.Storage
	if cfg.Database.UseInMemory {
		logger.Info("Using in-memory storage")
		store = storage.NewMemoryStorage()
	} else {
		logger.Info("Using PostgreSQL storage")
		dbConfig := storage.DatabaseConfig{
			Host:        cfg.Database.Host,
			Port:        cfg.Database.Port,
			User:        cfg.Database.User,
			Password:    cfg.Database.Password,
			DBName:      cfg.Database.DBName,
			SSLMode:     cfg.Database.SSLMode,
			UseInMemory: cfg.Database.UseInMemory,
		}
		store, err = storage.NewPostgresStorage(dbConfig, logger)
		if err != nil {
			logger.Fatal("Failed to initialize storage", zap.Error(err))
		}
	}
	defer store.Close()

	// Initialize content store
	var objects content.Store
	if cfg.Storage.UseInMemory || cfg.Storage.Bucket == "" {
		logger.Info("Using in-memory content store")
		objects = content.NewMemoryStore()
	} else {
		logger.Info("Using GCS content store", zap.String("bucket", cfg.Storage.Bucket))
		gcsStore, err := content.NewGCSStore(ctx, cfg.Storage.Bucket, logger)
		if err != nil {
			logger.Fatal("Failed to initialize content store", zap.Error(err))
		}
		defer gcsStore.Close()
		objects = gcsStore
	}

	// Optional audio transcription
	var tr transcriber.Transcriber
	if cfg.OpenAI.APIKey != "" {
		logger.Info("Audio transcription enabled", zap.String("model", cfg.OpenAI.Model))
		tr = transcriber.NewWhisperTranscriber(cfg.OpenAI.APIKey, cfg.OpenAI.Model, logger)
	}

	picker := tasks.NewPicker(store, logger)
	processor := submission.NewProcessor(store, objects, tr, logger)

	// Initialize bot
	b, err := bot.New(cfg.Telegram.Token, store, picker, processor, cfg.Tasks.Cooldown, logger)
	if err != nil {
		logger.Fatal("Failed to create bot", zap.Error(err))
	}

	// Start the bot
	if cfg.Server.UseWebhook {
		err = b.StartWebhook(cfg.Server.Addr, cfg.Server.WebhookPath)
	} else {
		err = b.Start()
	}
	if err != nil {
		logger.Fatal("Bot error", zap.Error(err))
	}
}
