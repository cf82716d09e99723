package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/forma-labs/backend/internal/logging"
	"github.com/forma-labs/backend/internal/notify"
)

// EmailHandler sends the results-ready email on demand.
type EmailHandler struct {
	Notifier SessionNotifier
}

type emailRequest struct {
	To      string `json:"to"`
	ShareID string `json:"shareId"`
}

// Send implements POST /api/v1/email.
func (h EmailHandler) Send(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	var req emailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid email payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.To = strings.TrimSpace(strings.ToLower(req.To))
	req.ShareID = strings.TrimSpace(req.ShareID)

	if req.To == "" || req.ShareID == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "to and shareId are required"})
		return
	}
	if _, err := mail.ParseAddress(req.To); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid email address"})
		return
	}

	if err := h.Notifier.ResultsEmail(ctx, req.To, req.ShareID); err != nil {
		if errors.Is(err, notify.ErrNotConfigured) {
			respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		logger.Error("send results email", "shareId", req.ShareID, "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to send email"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]bool{"ok": true})
}
