package insight

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/forma-labs/backend/internal/logging"
	"github.com/forma-labs/backend/internal/models"
	"github.com/forma-labs/backend/internal/repositories"
	"github.com/forma-labs/backend/internal/veo"
)

var (
	// ErrMissingPhoto indicates the session has no uploaded photo to analyze.
	ErrMissingPhoto = errors.New("session has no photo")
	// ErrInvalidOutput indicates the model returned a payload that failed
	// schema validation. Invalid output is a hard failure, never coerced.
	ErrInvalidOutput = errors.New("model output failed validation")
)

const photoURLTTL = time.Hour

// URLSigner mints short-lived read URLs for stored objects.
type URLSigner interface {
	SignedURL(ctx context.Context, key string, expires time.Duration) (string, error)
}

// Analyzer orchestrates the analysis call: it resolves the session photo,
// invokes the vision/text model and reconciles the result into session state.
type Analyzer struct {
	Sessions repositories.SessionRepository
	Signer   URLSigner
	Model    Model
	NowFunc  func() time.Time

	validate *validator.Validate
}

// NewAnalyzer constructs an analysis orchestrator.
func NewAnalyzer(sessions repositories.SessionRepository, signer URLSigner, model Model) *Analyzer {
	return &Analyzer{
		Sessions: sessions,
		Signer:   signer,
		Model:    model,
		validate: validator.New(),
	}
}

// Analyze runs the model against the session's photo and profile, writing the
// insight and vision payloads back and advancing the session to analyzed.
// Calling it again re-runs the model and overwrites the prior result.
//
// Missing-photo and not-found conditions are returned without touching the
// session; every failure after that marks the session failed before the error
// is handed back, so polling clients observe the outcome.
func (a *Analyzer) Analyze(ctx context.Context, sessionID string) (*models.Insights, *models.VisionAnalysis, error) {
	session, err := a.Sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}

	if session.PhotoPath == "" {
		return nil, nil, ErrMissingPhoto
	}

	ctx, span := logging.StartSpan(ctx, "analyze_session")
	defer span.End()

	insights, analysis, err := a.run(ctx, session)
	if err != nil {
		a.recordFailure(sessionID, err)
		return nil, nil, err
	}

	if err := a.Sessions.SetAnalysis(ctx, sessionID, insights, analysis, a.now()); err != nil {
		a.recordFailure(sessionID, err)
		return nil, nil, fmt.Errorf("store analysis: %w", err)
	}

	return insights, analysis, nil
}

func (a *Analyzer) run(ctx context.Context, session models.Session) (*models.Insights, *models.VisionAnalysis, error) {
	imageURL, err := a.Signer.SignedURL(ctx, session.PhotoPath, photoURLTTL)
	if err != nil {
		return nil, nil, fmt.Errorf("sign photo url: %w", err)
	}

	insights, err := a.generateInsights(ctx, session.Input, imageURL)
	if err != nil {
		return nil, nil, err
	}

	analysis, err := a.generateVisionAnalysis(ctx, session.Input, imageURL)
	if err != nil {
		return nil, nil, err
	}

	return insights, analysis, nil
}

func (a *Analyzer) generateInsights(ctx context.Context, profile models.Profile, imageURL string) (*models.Insights, error) {
	raw, err := a.Model.GenerateJSON(ctx, Prompt{
		System:   insightsSystemPrompt(profile),
		User:     profileContext(profile),
		ImageURL: imageURL,
	})
	if err != nil {
		return nil, fmt.Errorf("generate insights: %w", err)
	}

	var insights models.Insights
	if err := json.Unmarshal(raw, &insights); err != nil {
		return nil, fmt.Errorf("%w: decode insights: %v", ErrInvalidOutput, err)
	}

	if err := a.validate.Struct(insights); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}

	return &insights, nil
}

type visionModelOutput struct {
	UserVisualAnchor        string                 `json:"user_visual_anchor" validate:"required"`
	HeroNarrative           string                 `json:"hero_narrative" validate:"required"`
	EstimatedTransformation *models.Transformation `json:"estimated_transformation,omitempty"`
}

func (a *Analyzer) generateVisionAnalysis(ctx context.Context, profile models.Profile, imageURL string) (*models.VisionAnalysis, error) {
	raw, err := a.Model.GenerateJSON(ctx, Prompt{
		System:   visionSystemPrompt(profile),
		User:     profileContext(profile),
		ImageURL: imageURL,
	})
	if err != nil {
		return nil, fmt.Errorf("generate vision analysis: %w", err)
	}

	var out visionModelOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: decode vision analysis: %v", ErrInvalidOutput, err)
	}

	if err := a.validate.Struct(out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}

	return &models.VisionAnalysis{
		UserVisualAnchor: out.UserVisualAnchor,
		HeroNarrative:    out.HeroNarrative,
		VeoPrompt: veo.BuildCinematicPrompt(veo.CinematicPromptParams{
			UserVisualAnchor: out.UserVisualAnchor,
			HeroNarrative:    out.HeroNarrative,
			Goal:             profile.Goal,
			FocusZone:        profile.FocusZone,
		}),
		EstimatedTransformation: out.EstimatedTransformation,
	}, nil
}

// recordFailure marks the session failed on a detached context so a canceled
// request still leaves the failure observable to pollers.
func (a *Analyzer) recordFailure(sessionID string, cause error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.Sessions.MarkFailed(ctx, sessionID, cause.Error(), a.now()); err != nil {
		logging.FromContext(ctx).Error("mark session failed", "sessionId", sessionID, "error", err)
	}
}

func (a *Analyzer) now() time.Time {
	if a.NowFunc != nil {
		return a.NowFunc()
	}
	return time.Now().UTC()
}
