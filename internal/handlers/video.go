package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/forma-labs/backend/internal/config"
	"github.com/forma-labs/backend/internal/logging"
	"github.com/forma-labs/backend/internal/repositories"
	"github.com/forma-labs/backend/internal/veo"
)

// VideoHandler triggers transformation video generation for a session.
type VideoHandler struct {
	Generator VideoGenerator
	Config    config.Config
	Validate  *validator.Validate
}

type generateVideoRequest struct {
	SessionID       string `json:"sessionId" validate:"required"`
	DurationSeconds int    `json:"durationSeconds" validate:"omitempty,oneof=4 6 8"`
	Resolution      string `json:"resolution" validate:"omitempty,oneof=720p 1080p"`
	AspectRatio     string `json:"aspectRatio" validate:"omitempty,oneof=16:9 9:16"`
}

// Handle implements POST /api/v1/generate-video. The request blocks until
// the video is ready or generation fails.
func (h VideoHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if err := h.Config.RequireGeminiKey(); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	var req generateVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid video payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.SessionID = strings.TrimSpace(req.SessionID)
	if err := h.Validate.Struct(req); err != nil {
		logger.Warn("invalid video request", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid generation parameters"})
		return
	}

	video, err := h.Generator.Generate(ctx, req.SessionID, veo.Options{
		DurationSeconds: req.DurationSeconds,
		Resolution:      req.Resolution,
		AspectRatio:     req.AspectRatio,
	})
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "session not found"})
		case errors.Is(err, veo.ErrNotAnalyzed):
			respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "session is not analyzed yet"})
		case errors.Is(err, veo.ErrMissingPhoto):
			respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "session has no photo"})
		case errors.Is(err, veo.ErrSessionFailed):
			respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "session failed; submit a new session"})
		case errors.Is(err, repositories.ErrConflict):
			respondJSON(ctx, w, http.StatusConflict, map[string]string{"error": "video generation already in progress"})
		default:
			logger.Error("generate video", "sessionId", req.SessionID, "error", err)
			respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "video generation failed"})
		}
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{
		"ok":    true,
		"video": video,
	})
}
