package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/forma-labs/backend/internal/config"
)

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	validate := validator.New()

	health := HealthHandler{}
	sessions := SessionHandler{
		Sessions:    deps.Sessions,
		IPQuota:     deps.IPQuota,
		EmailQuota:  deps.EmailQuota,
		Assets:      deps.Assets,
		Notifier:    deps.Notifier,
		Limiter:     deps.Limiter,
		MaxPerIP:    deps.Config.MaxSessionsPerIPPerDay,
		MaxPerEmail: deps.Config.MaxSessionsPerEmailPerDay,
		Validate:    validate,
	}
	analyze := AnalyzeHandler{Analyzer: deps.Analyzer, Config: deps.Config}
	video := VideoHandler{Generator: deps.Generator, Config: deps.Config, Validate: validate}
	leads := LeadHandler{Leads: deps.Leads}
	email := EmailHandler{Notifier: deps.Notifier}

	mux.HandleFunc("/healthz", health.Handle)
	mux.HandleFunc("POST /api/v1/sessions", sessions.Create)
	mux.HandleFunc("GET /api/v1/sessions/{shareId}", sessions.Get)
	mux.HandleFunc("DELETE /api/v1/sessions/{shareId}", sessions.Delete)
	mux.HandleFunc("GET /api/v1/sessions/{shareId}/urls", sessions.URLs)
	mux.HandleFunc("GET /api/v1/sessions/{shareId}/video-url", sessions.VideoURL)
	mux.HandleFunc("GET /api/v1/sessions/{shareId}/preview", sessions.Preview)
	mux.HandleFunc("POST /api/v1/analyze", analyze.Handle)
	mux.HandleFunc("POST /api/v1/generate-video", video.Handle)
	mux.HandleFunc("POST /api/v1/leads", leads.Create)
	mux.HandleFunc("POST /api/v1/email", email.Send)
}

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Sessions   SessionStore
	IPQuota    QuotaStore
	EmailQuota QuotaStore
	Assets     AssetStore
	Analyzer   SessionAnalyzer
	Generator  VideoGenerator
	Leads      LeadStore
	Notifier   SessionNotifier
	Limiter    RateLimiter
	Config     config.Config
}
