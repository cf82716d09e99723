package veo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/forma-labs/backend/internal/logging"
	"github.com/forma-labs/backend/internal/models"
	"github.com/forma-labs/backend/internal/repositories"
)

var (
	// ErrNotAnalyzed indicates the session has no video-generation prompt yet.
	ErrNotAnalyzed = errors.New("session not analyzed")
	// ErrMissingPhoto indicates the session's reference photo is absent.
	ErrMissingPhoto = errors.New("session has no photo")
	// ErrSessionFailed indicates the session is terminally failed; recovery
	// is a fresh submission, never a retry.
	ErrSessionFailed = errors.New("session failed")
	// ErrTimeout indicates the vendor operation did not finish within the
	// polling ceiling.
	ErrTimeout = errors.New("video generation timed out")
)

// ObjectStore is the blob access the generator needs: the reference photo in,
// the finished video out.
type ObjectStore interface {
	Download(ctx context.Context, key string) ([]byte, string, error)
	Upload(ctx context.Context, key, contentType string, body []byte) error
}

// Options tune a single generation request.
type Options struct {
	DurationSeconds int
	Resolution      string
	AspectRatio     string
}

func (o Options) withDefaults() Options {
	if o.DurationSeconds == 0 {
		o.DurationSeconds = 8
	}
	if o.Resolution == "" {
		o.Resolution = "1080p"
	}
	if o.AspectRatio == "" {
		o.AspectRatio = "9:16"
	}
	return o
}

// Generator orchestrates video generation: precondition checks, the guarded
// transition to generating, the vendor job with bounded polling, the upload
// and the final transition to ready.
type Generator struct {
	Sessions repositories.SessionRepository
	Store    ObjectStore
	Jobs     JobClient

	PollInterval time.Duration
	MaxAttempts  int
	NowFunc      func() time.Time
}

// NewGenerator constructs a video orchestrator with the default polling
// budget (10s interval, 36 attempts, about 6 minutes).
func NewGenerator(sessions repositories.SessionRepository, store ObjectStore, jobs JobClient) *Generator {
	return &Generator{
		Sessions:     sessions,
		Store:        store,
		Jobs:         jobs,
		PollInterval: 10 * time.Second,
		MaxAttempts:  36,
	}
}

// Generate produces the transformation video for a session.
//
// A session that is already ready with a stored video short-circuits and
// returns the existing artifact without any upstream call. Otherwise the
// session must be analyzed (prompt present) and still hold its photo; the
// analyzed -> generating transition is guarded so concurrent requests cannot
// both start a vendor job. Failures after that point mark the session failed
// before the error is returned.
func (g *Generator) Generate(ctx context.Context, sessionID string, opts Options) (*models.Video, error) {
	opts = opts.withDefaults()

	session, err := g.Sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if session.Video != nil && session.Video.StoragePath != "" && session.Status == models.StatusReady {
		return session.Video, nil
	}

	if session.Status == models.StatusFailed {
		return nil, ErrSessionFailed
	}
	if session.Analysis == nil || session.Analysis.VeoPrompt == "" {
		return nil, ErrNotAnalyzed
	}
	if session.PhotoPath == "" {
		return nil, ErrMissingPhoto
	}

	if err := g.Sessions.BeginGenerating(ctx, sessionID, g.now()); err != nil {
		return nil, err
	}

	// The vendor job outlives a disconnected caller; the poll loop runs on a
	// detached context bounded by the polling budget so the session still
	// converges to ready or failed.
	runCtx, cancel := context.WithTimeout(logging.WithLogger(context.Background(), logging.FromContext(ctx)), g.pollBudget())
	defer cancel()

	runCtx, span := logging.StartSpan(runCtx, "generate_video")
	defer span.End()

	video, err := g.run(runCtx, session, opts)
	if err != nil {
		g.recordFailure(sessionID, err)
		return nil, err
	}

	if err := g.Sessions.SetVideo(runCtx, sessionID, *video, g.now()); err != nil {
		g.recordFailure(sessionID, err)
		return nil, fmt.Errorf("store video: %w", err)
	}

	return video, nil
}

func (g *Generator) run(ctx context.Context, session models.Session, opts Options) (*models.Video, error) {
	logger := logging.FromContext(ctx)

	photo, mimeType, err := g.Store.Download(ctx, session.PhotoPath)
	if err != nil {
		return nil, fmt.Errorf("download reference photo: %w", err)
	}

	operation, err := g.Jobs.Start(ctx, Job{
		Prompt:          session.Analysis.VeoPrompt,
		ImageMIME:       mimeType,
		ImageData:       photo,
		DurationSeconds: opts.DurationSeconds,
		Resolution:      opts.Resolution,
		AspectRatio:     opts.AspectRatio,
		GenerateAudio:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("start video job: %w", err)
	}

	logger.Info("video job started", "sessionId", session.ShareID, "operation", operation)

	status, err := g.await(ctx, operation)
	if err != nil {
		return nil, err
	}
	if status.Error != "" {
		return nil, fmt.Errorf("video job failed: %s", status.Error)
	}
	if status.VideoURI == "" {
		return nil, errors.New("video job returned no video")
	}

	data, err := g.Jobs.Fetch(ctx, status.VideoURI)
	if err != nil {
		return nil, fmt.Errorf("fetch generated video: %w", err)
	}

	storagePath := VideoStoragePath(session.ShareID)
	if err := g.Store.Upload(ctx, storagePath, "video/mp4", data); err != nil {
		return nil, fmt.Errorf("upload generated video: %w", err)
	}

	return &models.Video{
		StoragePath:     storagePath,
		DurationSeconds: opts.DurationSeconds,
		Resolution:      opts.Resolution,
	}, nil
}

// await polls the operation at a fixed interval up to the attempt ceiling.
// Exceeding the ceiling is a timeout failure, never a silent success.
func (g *Generator) await(ctx context.Context, operation string) (JobStatus, error) {
	status, err := g.Jobs.Poll(ctx, operation)
	if err != nil {
		return JobStatus{}, fmt.Errorf("poll video job: %w", err)
	}

	for attempts := 0; !status.Done && attempts < g.MaxAttempts; attempts++ {
		select {
		case <-ctx.Done():
			return JobStatus{}, ctx.Err()
		case <-time.After(g.PollInterval):
		}

		status, err = g.Jobs.Poll(ctx, operation)
		if err != nil {
			return JobStatus{}, fmt.Errorf("poll video job: %w", err)
		}
	}

	if !status.Done {
		return JobStatus{}, ErrTimeout
	}

	return status, nil
}

// pollBudget bounds the detached run: the full polling window plus slack for
// the job start, download and upload around it.
func (g *Generator) pollBudget() time.Duration {
	return g.PollInterval*time.Duration(g.MaxAttempts+1) + time.Minute
}

// VideoStoragePath is the deterministic blob key for a session's video.
func VideoStoragePath(shareID string) string {
	return fmt.Sprintf("sessions/%s/video/transformation.mp4", shareID)
}

// recordFailure marks the session failed on a detached context so a canceled
// request still leaves the failure observable to pollers.
func (g *Generator) recordFailure(sessionID string, cause error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := g.Sessions.MarkFailed(ctx, sessionID, cause.Error(), g.now()); err != nil {
		logging.FromContext(ctx).Error("mark session failed", "sessionId", sessionID, "error", err)
	}
}

func (g *Generator) now() time.Time {
	if g.NowFunc != nil {
		return g.NowFunc()
	}
	return time.Now().UTC()
}
