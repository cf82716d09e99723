package handlers

import (
	"context"
	"time"

	"github.com/forma-labs/backend/internal/models"
	"github.com/forma-labs/backend/internal/veo"
)

// SessionStore captures the persistence operations required by the session
// handlers.
type SessionStore interface {
	Create(ctx context.Context, session models.Session) error
	Get(ctx context.Context, shareID string) (models.Session, error)
	Delete(ctx context.Context, shareID string) error
}

// QuotaStore reserves and releases daily submission counters.
type QuotaStore interface {
	Reserve(ctx context.Context, identifier, day string, limit int) error
	Release(ctx context.Context, identifier, day string) error
}

// SessionAnalyzer runs the model analysis for a session.
type SessionAnalyzer interface {
	Analyze(ctx context.Context, shareID string) (*models.Insights, *models.VisionAnalysis, error)
}

// VideoGenerator produces the transformation video for a session.
type VideoGenerator interface {
	Generate(ctx context.Context, shareID string, opts veo.Options) (*models.Video, error)
}

// AssetStore mints signed read URLs and removes stored objects.
type AssetStore interface {
	SignedURL(ctx context.Context, key string, expires time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// LeadStore persists lead captures.
type LeadStore interface {
	Upsert(ctx context.Context, lead models.Lead) error
}

// SessionNotifier fans out session lifecycle notifications.
type SessionNotifier interface {
	SessionCreated(ctx context.Context, session models.Session)
	ResultsEmail(ctx context.Context, to, shareID string) error
}
