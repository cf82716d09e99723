package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/forma-labs/backend/internal/logging"
	"github.com/forma-labs/backend/internal/models"
	"github.com/forma-labs/backend/internal/repositories"
)

const (
	photoURLTTL   = time.Hour
	videoURLTTL   = 2 * time.Hour
	previewURLTTL = 7 * 24 * time.Hour
)

// SessionHandler implements the session intake and gateway endpoints.
type SessionHandler struct {
	Sessions   SessionStore
	IPQuota    QuotaStore
	EmailQuota QuotaStore
	Assets     AssetStore
	Notifier   SessionNotifier
	Limiter    RateLimiter

	MaxPerIP    int
	MaxPerEmail int

	Validate *validator.Validate
	NowFunc  func() time.Time
}

type createSessionRequest struct {
	Email     string         `json:"email"`
	Input     models.Profile `json:"input"`
	PhotoPath string         `json:"photoPath"`
}

// Create handles POST /api/v1/sessions requests.
func (h SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, "sessions") {
		respondJSON(ctx, w, http.StatusTooManyRequests, map[string]string{"error": "too many requests"})
		return
	}

	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid session payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.PhotoPath = strings.TrimSpace(req.PhotoPath)

	if req.PhotoPath == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "photoPath is required"})
		return
	}
	if req.Email != "" {
		if _, err := mail.ParseAddress(req.Email); err != nil {
			respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid email address"})
			return
		}
	}
	if err := h.Validate.Struct(req.Input); err != nil {
		logger.Warn("invalid session input", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid input profile"})
		return
	}

	now := h.now()
	day := now.Format("2006-01-02")
	ip := clientIP(r)

	// The sentinel "unknown" identifier bypasses the IP quota; proxied
	// deployments without a forwarded address fall back to it.
	ipLimited := ip != "" && ip != "unknown"
	if ipLimited {
		if err := h.IPQuota.Reserve(ctx, ip, day, h.MaxPerIP); err != nil {
			if errors.Is(err, repositories.ErrRateLimited) {
				respondJSON(ctx, w, http.StatusTooManyRequests, map[string]string{"error": "daily session limit reached"})
				return
			}
			logger.Error("reserve ip quota", "error", err)
			respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to create session"})
			return
		}
	}

	if req.Email != "" {
		if err := h.EmailQuota.Reserve(ctx, req.Email, day, h.MaxPerEmail); err != nil {
			// A rejected email quota keeps the IP increment; an infrastructure
			// failure rolls it back so no attempt is consumed.
			if errors.Is(err, repositories.ErrRateLimited) {
				respondJSON(ctx, w, http.StatusTooManyRequests, map[string]string{"error": "daily session limit reached for this email"})
				return
			}
			h.releaseQuotas(ctx, ipLimited, ip, "", day)
			logger.Error("reserve email quota", "error", err)
			respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to create session"})
			return
		}
	}

	session := models.Session{
		ShareID:   newShareID(),
		Email:     req.Email,
		Input:     req.Input,
		PhotoPath: req.PhotoPath,
		Status:    models.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.Sessions.Create(ctx, session); err != nil {
		h.releaseQuotas(ctx, ipLimited, ip, req.Email, day)
		logger.Error("create session", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to create session"})
		return
	}

	if h.Notifier != nil {
		h.Notifier.SessionCreated(ctx, session)
	}

	respondJSON(ctx, w, http.StatusCreated, map[string]string{"sessionId": session.ShareID})
}

// releaseQuotas compensates counters taken earlier in the request. Detached
// from the request context so a client disconnect cannot leak a reservation.
func (h SessionHandler) releaseQuotas(parent context.Context, ipLimited bool, ip, email, day string) {
	logger := logging.FromContext(parent)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if ipLimited {
		if err := h.IPQuota.Release(ctx, ip, day); err != nil {
			logger.Error("release ip quota", "error", err)
		}
	}
	if email != "" {
		if err := h.EmailQuota.Release(ctx, email, day); err != nil {
			logger.Error("release email quota", "error", err)
		}
	}
}

type sessionProjection struct {
	ShareID      string                 `json:"shareId"`
	Status       string                 `json:"status"`
	Input        models.Profile         `json:"input"`
	Insights     *models.Insights       `json:"insights,omitempty"`
	Analysis     *models.VisionAnalysis `json:"analysis,omitempty"`
	Assets       map[string]string      `json:"assets,omitempty"`
	PhotoPath    string                 `json:"photoPath,omitempty"`
	Video        *models.Video          `json:"video,omitempty"`
	ErrorMessage string                 `json:"errorMessage,omitempty"`
	CreatedAt    time.Time              `json:"createdAt"`
}

// Get handles GET /api/v1/sessions/{shareId} requests.
func (h SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	session, err := h.Sessions.Get(ctx, r.PathValue("shareId"))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "session not found"})
			return
		}
		logging.FromContext(ctx).Error("load session", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to load session"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, sessionProjection{
		ShareID:      session.ShareID,
		Status:       session.Status,
		Input:        session.Input,
		Insights:     session.Insights,
		Analysis:     session.Analysis,
		Assets:       session.Assets,
		PhotoPath:    session.PhotoPath,
		Video:        session.Video,
		ErrorMessage: session.ErrorMessage,
		CreatedAt:    session.CreatedAt,
	})
}

// Delete handles DELETE /api/v1/sessions/{shareId} requests. Blob cleanup is
// best-effort; the row is removed regardless, and a missing session is a
// no-op success so retries stay idempotent.
func (h SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)
	shareID := r.PathValue("shareId")

	session, err := h.Sessions.Get(ctx, shareID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusOK, map[string]bool{"ok": true})
			return
		}
		logger.Error("load session for delete", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to delete session"})
		return
	}

	for stage, key := range session.Assets {
		if err := h.Assets.Delete(ctx, key); err != nil {
			logger.Warn("delete session asset", "shareId", shareID, "stage", stage, "error", err)
		}
	}
	if session.PhotoPath != "" {
		if err := h.Assets.Delete(ctx, session.PhotoPath); err != nil {
			logger.Warn("delete session photo", "shareId", shareID, "error", err)
		}
	}
	if err := h.Assets.DeletePrefix(ctx, fmt.Sprintf("sessions/%s/", shareID)); err != nil {
		logger.Warn("delete session blob prefix", "shareId", shareID, "error", err)
	}

	if err := h.Sessions.Delete(ctx, shareID); err != nil && !errors.Is(err, repositories.ErrNotFound) {
		logger.Error("delete session row", "shareId", shareID, "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to delete session"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]bool{"ok": true})
}

// URLs handles GET /api/v1/sessions/{shareId}/urls requests, minting fresh
// short-lived read URLs for the photo and every image variant.
func (h SessionHandler) URLs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	session, err := h.Sessions.Get(ctx, r.PathValue("shareId"))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "session not found"})
			return
		}
		logger.Error("load session", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to load session"})
		return
	}

	payload := struct {
		PhotoURL string            `json:"photoUrl,omitempty"`
		Assets   map[string]string `json:"assets"`
	}{Assets: map[string]string{}}

	if session.PhotoPath != "" {
		url, err := h.Assets.SignedURL(ctx, session.PhotoPath, photoURLTTL)
		if err != nil {
			logger.Error("sign photo url", "error", err)
			respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to sign urls"})
			return
		}
		payload.PhotoURL = url
	}

	for stage, key := range session.Assets {
		url, err := h.Assets.SignedURL(ctx, key, photoURLTTL)
		if err != nil {
			logger.Error("sign asset url", "stage", stage, "error", err)
			respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to sign urls"})
			return
		}
		payload.Assets[stage] = url
	}

	respondJSON(ctx, w, http.StatusOK, payload)
}

// VideoURL handles GET /api/v1/sessions/{shareId}/video-url requests.
func (h SessionHandler) VideoURL(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	session, err := h.Sessions.Get(ctx, r.PathValue("shareId"))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "session not found"})
			return
		}
		logging.FromContext(ctx).Error("load session", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to load session"})
		return
	}

	if session.Video == nil || session.Video.StoragePath == "" {
		respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "video not generated yet"})
		return
	}

	url, err := h.Assets.SignedURL(ctx, session.Video.StoragePath, videoURLTTL)
	if err != nil {
		logging.FromContext(ctx).Error("sign video url", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to sign video url"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{
		"url":             url,
		"durationSeconds": session.Video.DurationSeconds,
		"resolution":      session.Video.Resolution,
		"status":          session.Status,
	})
}

// Preview handles GET /api/v1/sessions/{shareId}/preview requests: the best
// available image (latest variant first, then the original photo) signed
// long enough for social cards to keep rendering.
func (h SessionHandler) Preview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	session, err := h.Sessions.Get(ctx, r.PathValue("shareId"))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "session not found"})
			return
		}
		logging.FromContext(ctx).Error("load session", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to load session"})
		return
	}

	key := session.PhotoPath
	for _, stage := range []string{"m4", "m8", "m12"} {
		if variant, ok := session.Assets[stage]; ok && variant != "" {
			key = variant
		}
	}
	if key == "" {
		respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "no preview image available"})
		return
	}

	url, err := h.Assets.SignedURL(ctx, key, previewURLTTL)
	if err != nil {
		logging.FromContext(ctx).Error("sign preview url", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to sign preview url"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{
		"imageUrl": url,
		"goal":     session.Input.Goal,
		"level":    session.Input.Level,
	})
}

// newShareID produces the short public identifier embedded in share links.
func newShareID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

func (h SessionHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
