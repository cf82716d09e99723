package handlers

import (
	"encoding/json"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/forma-labs/backend/internal/logging"
	"github.com/forma-labs/backend/internal/models"
)

// LeadHandler captures marketing leads outside the session flow.
type LeadHandler struct {
	Leads   LeadStore
	NowFunc func() time.Time
}

type leadRequest struct {
	Email   string `json:"email"`
	Source  string `json:"source"`
	Consent bool   `json:"consent"`
}

// Create implements POST /api/v1/leads.
func (h LeadHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	var req leadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid lead payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "email is required"})
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid email address"})
		return
	}

	now := h.now()
	lead := models.Lead{
		Email:     req.Email,
		Source:    req.Source,
		Consent:   req.Consent,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.Leads.Upsert(ctx, lead); err != nil {
		logger.Error("upsert lead", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to store lead"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]bool{"ok": true})
}

func (h LeadHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
