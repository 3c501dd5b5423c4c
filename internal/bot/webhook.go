package bot

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// StartWebhook serves Telegram updates over HTTP instead of long
// polling. The webhook itself must be registered with Telegram out of
// band; this side only decodes and dispatches.
func (b *Bot) StartWebhook(addr, path string) error {
	b.logger.Info("Listening for webhook updates",
		zap.String("addr", addr),
		zap.String("path", path))

	return http.ListenAndServe(addr, b.webhookRouter(path))
}

func (b *Bot) webhookRouter(path string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Post(path, b.handleWebhook)

	return r
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		b.logger.Warn("Failed to decode webhook update", zap.Error(err))
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	// Telegram only needs the 200; processing continues off the request
	// goroutine, serialized per user by the session lock.
	go b.handleUpdate(update)
	w.WriteHeader(http.StatusOK)
}
