package app

import (
	"time"

	"github.com/forma-labs/backend/internal/config"
	"github.com/forma-labs/backend/internal/db"
	"github.com/forma-labs/backend/internal/handlers"
	"github.com/forma-labs/backend/internal/insight"
	"github.com/forma-labs/backend/internal/middleware"
	"github.com/forma-labs/backend/internal/notify"
	"github.com/forma-labs/backend/internal/repositories"
	"github.com/forma-labs/backend/internal/storage"
	"github.com/forma-labs/backend/internal/veo"
)

// buildDependencies wires together concrete implementations used by the HTTP handlers.
func buildDependencies(pool db.Pool, store *storage.S3Storage, cfg config.Config) handlers.Dependencies {
	sessions := repositories.NewPostgresSessionRepository(pool)

	model := insight.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiModel)
	analyzer := insight.NewAnalyzer(sessions, store, model)

	jobs := veo.NewClient(cfg.GeminiAPIKey, cfg.VeoModel)
	generator := veo.NewGenerator(sessions, store, jobs)
	generator.PollInterval = cfg.VideoPollInterval
	generator.MaxAttempts = cfg.VideoPollMaxAttempts

	var sender notify.EmailSender
	if s := notify.NewResendSender(cfg.ResendAPIKey, cfg.EmailFrom); s != nil {
		sender = s
	}
	notifier := notify.NewNotifier(cfg.WebhookURL, cfg.BaseURL, sender)

	return handlers.Dependencies{
		Sessions:   sessions,
		IPQuota:    repositories.NewPostgresIPRateLimitStore(pool),
		EmailQuota: repositories.NewPostgresEmailRateLimitStore(pool),
		Assets:     store,
		Analyzer:   analyzer,
		Generator:  generator,
		Leads:      repositories.NewPostgresLeadRepository(pool),
		Notifier:   notifier,
		Limiter:    middleware.NewIPRateLimiter(10, time.Minute, 5, 10*time.Minute),
		Config:     cfg,
	}
}
