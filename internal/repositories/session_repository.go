package repositories

import (
	"context"
	"time"

	"github.com/forma-labs/backend/internal/models"
)

// SessionRepository exposes persistence for transformation sessions.
//
// Status transitions are encoded here rather than left to callers:
// SetAnalysis moves a session to analyzed, BeginGenerating performs a guarded
// analyzed -> generating transition, SetVideo moves generating -> ready and
// MarkFailed records a terminal failure from any state.
type SessionRepository interface {
	Create(ctx context.Context, session models.Session) error
	Get(ctx context.Context, shareID string) (models.Session, error)
	SetAnalysis(ctx context.Context, shareID string, insights *models.Insights, analysis *models.VisionAnalysis, at time.Time) error
	BeginGenerating(ctx context.Context, shareID string, at time.Time) error
	SetVideo(ctx context.Context, shareID string, video models.Video, at time.Time) error
	MarkFailed(ctx context.Context, shareID, message string, at time.Time) error
	Delete(ctx context.Context, shareID string) error
}

// RateLimitRepository maintains daily counters keyed by "{identifier}-{day}".
//
// Reserve reads the counter and increments it unless the limit is reached.
// The read and the increment are deliberately not one transaction: two
// concurrent reservations may both pass the check, over-admitting by a small
// margin. Release compensates a reservation after a downstream failure and
// is transactional with a floor of zero.
type RateLimitRepository interface {
	Reserve(ctx context.Context, identifier, day string, limit int) error
	Release(ctx context.Context, identifier, day string) error
}

// LeadRepository stores contact captures keyed by lowercased email.
type LeadRepository interface {
	Upsert(ctx context.Context, lead models.Lead) error
}
