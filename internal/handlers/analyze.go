package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/forma-labs/backend/internal/config"
	"github.com/forma-labs/backend/internal/insight"
	"github.com/forma-labs/backend/internal/logging"
	"github.com/forma-labs/backend/internal/repositories"
)

// AnalyzeHandler triggers the model analysis for a session.
type AnalyzeHandler struct {
	Analyzer SessionAnalyzer
	Config   config.Config
}

type analyzeRequest struct {
	SessionID string `json:"sessionId"`
}

// Handle implements POST /api/v1/analyze.
func (h AnalyzeHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if err := h.Config.RequireGeminiKey(); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid analyze payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.SessionID = strings.TrimSpace(req.SessionID)
	if req.SessionID == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "sessionId is required"})
		return
	}

	insights, analysis, err := h.Analyzer.Analyze(ctx, req.SessionID)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "session not found"})
		case errors.Is(err, insight.ErrMissingPhoto):
			respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "session has no photo"})
		default:
			logger.Error("analyze session", "sessionId", req.SessionID, "error", err)
			respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "analysis failed"})
		}
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{
		"ok":       true,
		"insights": insights,
		"analysis": analysis,
	})
}
