package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/forma-labs/backend/internal/models"
	"github.com/forma-labs/backend/internal/repositories"
)

type sessionStoreStub struct {
	sessions  map[string]models.Session
	created   []models.Session
	deleted   []string
	createErr error
	deleteErr error
}

func newSessionStoreStub() *sessionStoreStub {
	return &sessionStoreStub{sessions: map[string]models.Session{}}
}

func (s *sessionStoreStub) Create(ctx context.Context, session models.Session) error {
	_ = ctx
	if s.createErr != nil {
		return s.createErr
	}
	s.created = append(s.created, session)
	s.sessions[session.ShareID] = session
	return nil
}

func (s *sessionStoreStub) Get(ctx context.Context, shareID string) (models.Session, error) {
	_ = ctx
	session, ok := s.sessions[shareID]
	if !ok {
		return models.Session{}, repositories.ErrNotFound
	}
	return session, nil
}

func (s *sessionStoreStub) Delete(ctx context.Context, shareID string) error {
	_ = ctx
	if s.deleteErr != nil {
		return s.deleteErr
	}
	if _, ok := s.sessions[shareID]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.sessions, shareID)
	s.deleted = append(s.deleted, shareID)
	return nil
}

type quotaStub struct {
	reserved   []string
	released   []string
	reserveErr error
}

func (q *quotaStub) Reserve(ctx context.Context, identifier, day string, limit int) error {
	_ = ctx
	if q.reserveErr != nil {
		return q.reserveErr
	}
	q.reserved = append(q.reserved, repositories.CounterID(identifier, day))
	return nil
}

func (q *quotaStub) Release(ctx context.Context, identifier, day string) error {
	_ = ctx
	q.released = append(q.released, repositories.CounterID(identifier, day))
	return nil
}

type assetStoreStub struct {
	deleted         []string
	deletedPrefixes []string
	signErr         error
}

func (a *assetStoreStub) SignedURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	_ = ctx
	if a.signErr != nil {
		return "", a.signErr
	}
	return fmt.Sprintf("https://signed.example/%s?expires=%d", key, int(expires.Seconds())), nil
}

func (a *assetStoreStub) Delete(ctx context.Context, key string) error {
	_ = ctx
	a.deleted = append(a.deleted, key)
	return nil
}

func (a *assetStoreStub) DeletePrefix(ctx context.Context, prefix string) error {
	_ = ctx
	a.deletedPrefixes = append(a.deletedPrefixes, prefix)
	return nil
}

type notifierStub struct {
	created    []models.Session
	emails     []string
	resultsErr error
}

func (n *notifierStub) SessionCreated(ctx context.Context, session models.Session) {
	_ = ctx
	n.created = append(n.created, session)
}

func (n *notifierStub) ResultsEmail(ctx context.Context, to, shareID string) error {
	_ = ctx
	if n.resultsErr != nil {
		return n.resultsErr
	}
	n.emails = append(n.emails, fmt.Sprintf("%s:%s", to, shareID))
	return nil
}

func validProfile() models.Profile {
	return models.Profile{
		Age:        28,
		Sex:        "male",
		HeightCm:   178,
		WeightKg:   74,
		Level:      "intermedio",
		Goal:       "masa",
		WeeklyTime: 6,
		FocusZone:  "upper",
	}
}

func newSessionHandler(store *sessionStoreStub, ipQuota, emailQuota *quotaStub, assets *assetStoreStub, notifier *notifierStub) SessionHandler {
	return SessionHandler{
		Sessions:    store,
		IPQuota:     ipQuota,
		EmailQuota:  emailQuota,
		Assets:      assets,
		Notifier:    notifier,
		MaxPerIP:    3,
		MaxPerEmail: 2,
		Validate:    validator.New(),
		NowFunc: func() time.Time {
			return time.Date(2026, time.August, 29, 12, 0, 0, 0, time.UTC)
		},
	}
}

func createBody(t *testing.T, email string) *bytes.Reader {
	t.Helper()
	body, err := json.Marshal(createSessionRequest{
		Email:     email,
		Input:     validProfile(),
		PhotoPath: "uploads/seed/original.jpg",
	})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	return bytes.NewReader(body)
}

func TestSessionHandlerCreateSuccess(t *testing.T) {
	store := newSessionStoreStub()
	ipQuota := &quotaStub{}
	emailQuota := &quotaStub{}
	notifier := &notifierStub{}
	handler := newSessionHandler(store, ipQuota, emailQuota, &assetStoreStub{}, notifier)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", createBody(t, "Alice@Example.com"))
	req.RemoteAddr = "203.0.113.9:4321"
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("unexpected status: got %d want %d", rec.Code, http.StatusCreated)
	}

	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp["sessionId"]) != 12 {
		t.Fatalf("expected 12-char sessionId, got %q", resp["sessionId"])
	}

	if len(store.created) != 1 {
		t.Fatalf("expected one session created, got %d", len(store.created))
	}
	created := store.created[0]
	if created.Status != models.StatusPending {
		t.Fatalf("expected pending status, got %s", created.Status)
	}
	if created.Email != "alice@example.com" {
		t.Fatalf("expected lowercased email, got %q", created.Email)
	}

	if len(ipQuota.reserved) != 1 || ipQuota.reserved[0] != "203.0.113.9-2026-08-29" {
		t.Fatalf("unexpected ip reservations: %v", ipQuota.reserved)
	}
	if len(emailQuota.reserved) != 1 || emailQuota.reserved[0] != "alice@example.com-2026-08-29" {
		t.Fatalf("unexpected email reservations: %v", emailQuota.reserved)
	}
	if len(notifier.created) != 1 || notifier.created[0].ShareID != created.ShareID {
		t.Fatalf("expected creation notification, got %+v", notifier.created)
	}
}

func TestSessionHandlerCreateWithoutEmailSkipsEmailQuota(t *testing.T) {
	store := newSessionStoreStub()
	emailQuota := &quotaStub{}
	handler := newSessionHandler(store, &quotaStub{}, emailQuota, &assetStoreStub{}, &notifierStub{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", createBody(t, ""))
	req.RemoteAddr = "203.0.113.9:4321"
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("unexpected status: got %d want %d", rec.Code, http.StatusCreated)
	}
	if len(emailQuota.reserved) != 0 {
		t.Fatalf("expected no email reservation, got %v", emailQuota.reserved)
	}
}

func TestSessionHandlerCreateInvalidProfile(t *testing.T) {
	store := newSessionStoreStub()
	ipQuota := &quotaStub{}
	handler := newSessionHandler(store, ipQuota, &quotaStub{}, &assetStoreStub{}, &notifierStub{})

	profile := validProfile()
	profile.Age = 9
	body, _ := json.Marshal(createSessionRequest{Input: profile, PhotoPath: "uploads/seed/original.jpg"})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: got %d want %d", rec.Code, http.StatusBadRequest)
	}
	if len(ipQuota.reserved) != 0 {
		t.Fatalf("expected no reservation for invalid payload, got %v", ipQuota.reserved)
	}
	if len(store.created) != 0 {
		t.Fatalf("expected no session created, got %d", len(store.created))
	}
}

func TestSessionHandlerCreateMissingPhotoPath(t *testing.T) {
	handler := newSessionHandler(newSessionStoreStub(), &quotaStub{}, &quotaStub{}, &assetStoreStub{}, &notifierStub{})

	body, _ := json.Marshal(createSessionRequest{Input: validProfile()})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: got %d want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestSessionHandlerCreateIPRateLimited(t *testing.T) {
	store := newSessionStoreStub()
	ipQuota := &quotaStub{reserveErr: repositories.ErrRateLimited}
	handler := newSessionHandler(store, ipQuota, &quotaStub{}, &assetStoreStub{}, &notifierStub{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", createBody(t, ""))
	req.RemoteAddr = "203.0.113.9:4321"
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("unexpected status: got %d want %d", rec.Code, http.StatusTooManyRequests)
	}
	if len(store.created) != 0 {
		t.Fatalf("expected no session created, got %d", len(store.created))
	}
}

func TestSessionHandlerCreateEmailRateLimitKeepsIPCounter(t *testing.T) {
	store := newSessionStoreStub()
	ipQuota := &quotaStub{}
	emailQuota := &quotaStub{reserveErr: repositories.ErrRateLimited}
	handler := newSessionHandler(store, ipQuota, emailQuota, &assetStoreStub{}, &notifierStub{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", createBody(t, "alice@example.com"))
	req.RemoteAddr = "203.0.113.9:4321"
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("unexpected status: got %d want %d", rec.Code, http.StatusTooManyRequests)
	}
	// The IP increment deliberately stands when the email quota rejects.
	if len(ipQuota.reserved) != 1 {
		t.Fatalf("expected ip reservation to remain, got %v", ipQuota.reserved)
	}
	if len(ipQuota.released) != 0 {
		t.Fatalf("expected no ip release, got %v", ipQuota.released)
	}
}

func TestSessionHandlerCreateEmailQuotaErrorReleasesIPCounter(t *testing.T) {
	store := newSessionStoreStub()
	ipQuota := &quotaStub{}
	emailQuota := &quotaStub{reserveErr: errors.New("counter table unavailable")}
	handler := newSessionHandler(store, ipQuota, emailQuota, &assetStoreStub{}, &notifierStub{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", createBody(t, "alice@example.com"))
	req.RemoteAddr = "203.0.113.9:4321"
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("unexpected status: got %d want %d", rec.Code, http.StatusInternalServerError)
	}
	if len(ipQuota.released) != 1 || ipQuota.released[0] != "203.0.113.9-2026-08-29" {
		t.Fatalf("expected ip release, got %v", ipQuota.released)
	}
	if len(emailQuota.released) != 0 {
		t.Fatalf("expected no email release, got %v", emailQuota.released)
	}
	if len(store.created) != 0 {
		t.Fatalf("expected no session, got %v", store.created)
	}
}

func TestSessionHandlerCreateStoreFailureReleasesQuotas(t *testing.T) {
	store := newSessionStoreStub()
	store.createErr = errors.New("insert failed")
	ipQuota := &quotaStub{}
	emailQuota := &quotaStub{}
	handler := newSessionHandler(store, ipQuota, emailQuota, &assetStoreStub{}, &notifierStub{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", createBody(t, "alice@example.com"))
	req.RemoteAddr = "203.0.113.9:4321"
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("unexpected status: got %d want %d", rec.Code, http.StatusInternalServerError)
	}
	if len(ipQuota.released) != 1 || ipQuota.released[0] != "203.0.113.9-2026-08-29" {
		t.Fatalf("expected ip release, got %v", ipQuota.released)
	}
	if len(emailQuota.released) != 1 || emailQuota.released[0] != "alice@example.com-2026-08-29" {
		t.Fatalf("expected email release, got %v", emailQuota.released)
	}
}

func TestSessionHandlerCreateUnknownIPBypassesQuota(t *testing.T) {
	store := newSessionStoreStub()
	ipQuota := &quotaStub{reserveErr: repositories.ErrRateLimited}
	handler := newSessionHandler(store, ipQuota, &quotaStub{}, &assetStoreStub{}, &notifierStub{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", createBody(t, ""))
	req.Header.Set("X-Forwarded-For", "unknown")
	req.RemoteAddr = ""
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("unexpected status: got %d want %d", rec.Code, http.StatusCreated)
	}
	if len(ipQuota.reserved) != 0 {
		t.Fatalf("expected no reservation for unknown ip, got %v", ipQuota.reserved)
	}
}

func TestSessionHandlerGet(t *testing.T) {
	store := newSessionStoreStub()
	store.sessions["abc123def456"] = models.Session{
		ShareID:      "abc123def456",
		Email:        "alice@example.com",
		Input:        validProfile(),
		PhotoPath:    "uploads/abc123def456/original.jpg",
		Status:       models.StatusFailed,
		ErrorMessage: "model output failed validation",
		CreatedAt:    time.Date(2026, time.August, 29, 12, 0, 0, 0, time.UTC),
		AnalyzedAt:   &time.Time{},
	}
	handler := newSessionHandler(store, &quotaStub{}, &quotaStub{}, &assetStoreStub{}, &notifierStub{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/abc123def456", nil)
	req.SetPathValue("shareId", "abc123def456")
	rec := httptest.NewRecorder()

	handler.Get(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", rec.Code, http.StatusOK)
	}

	var resp map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["shareId"] != "abc123def456" || resp["status"] != models.StatusFailed {
		t.Fatalf("unexpected projection: %v", resp)
	}
	if resp["errorMessage"] != "model output failed validation" {
		t.Fatalf("expected errorMessage in projection, got %v", resp)
	}
	if _, ok := resp["email"]; ok {
		t.Fatalf("email must not leak into the public projection: %v", resp)
	}
	if _, ok := resp["analyzedAt"]; ok {
		t.Fatalf("internal timestamps must not leak: %v", resp)
	}
}

func TestSessionHandlerGetNotFound(t *testing.T) {
	handler := newSessionHandler(newSessionStoreStub(), &quotaStub{}, &quotaStub{}, &assetStoreStub{}, &notifierStub{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/nope", nil)
	req.SetPathValue("shareId", "nope")
	rec := httptest.NewRecorder()

	handler.Get(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: got %d want %d", rec.Code, http.StatusNotFound)
	}
}

func TestSessionHandlerDeleteCascades(t *testing.T) {
	store := newSessionStoreStub()
	store.sessions["abc123def456"] = models.Session{
		ShareID:   "abc123def456",
		PhotoPath: "uploads/abc123def456/original.jpg",
		Assets: map[string]string{
			"m4":  "sessions/abc123def456/images/m4.jpg",
			"m12": "sessions/abc123def456/images/m12.jpg",
		},
		Status: models.StatusReady,
	}
	assets := &assetStoreStub{}
	handler := newSessionHandler(store, &quotaStub{}, &quotaStub{}, assets, &notifierStub{})

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/sessions/abc123def456", nil)
	req.SetPathValue("shareId", "abc123def456")
	rec := httptest.NewRecorder()

	handler.Delete(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", rec.Code, http.StatusOK)
	}
	if len(assets.deleted) != 3 {
		t.Fatalf("expected photo and both variants deleted, got %v", assets.deleted)
	}
	if len(assets.deletedPrefixes) != 1 || assets.deletedPrefixes[0] != "sessions/abc123def456/" {
		t.Fatalf("unexpected prefix deletion: %v", assets.deletedPrefixes)
	}
	if len(store.deleted) != 1 || store.deleted[0] != "abc123def456" {
		t.Fatalf("expected session row deleted, got %v", store.deleted)
	}
}

func TestSessionHandlerDeleteMissingIsNoop(t *testing.T) {
	assets := &assetStoreStub{}
	handler := newSessionHandler(newSessionStoreStub(), &quotaStub{}, &quotaStub{}, assets, &notifierStub{})

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/sessions/ghost", nil)
	req.SetPathValue("shareId", "ghost")
	rec := httptest.NewRecorder()

	handler.Delete(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", rec.Code, http.StatusOK)
	}
	if len(assets.deleted) != 0 || len(assets.deletedPrefixes) != 0 {
		t.Fatalf("expected no blob deletions for a missing session")
	}
}

func TestSessionHandlerURLs(t *testing.T) {
	store := newSessionStoreStub()
	store.sessions["abc123def456"] = models.Session{
		ShareID:   "abc123def456",
		PhotoPath: "uploads/abc123def456/original.jpg",
		Assets:    map[string]string{"m12": "sessions/abc123def456/images/m12.jpg"},
		Status:    models.StatusAnalyzed,
	}
	handler := newSessionHandler(store, &quotaStub{}, &quotaStub{}, &assetStoreStub{}, &notifierStub{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/abc123def456/urls", nil)
	req.SetPathValue("shareId", "abc123def456")
	rec := httptest.NewRecorder()

	handler.URLs(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", rec.Code, http.StatusOK)
	}

	var resp struct {
		PhotoURL string            `json:"photoUrl"`
		Assets   map[string]string `json:"assets"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !strings.Contains(resp.PhotoURL, "uploads/abc123def456/original.jpg") {
		t.Fatalf("unexpected photo url: %q", resp.PhotoURL)
	}
	if !strings.Contains(resp.PhotoURL, "expires=3600") {
		t.Fatalf("expected one-hour expiry, got %q", resp.PhotoURL)
	}
	if !strings.Contains(resp.Assets["m12"], "m12.jpg") {
		t.Fatalf("unexpected asset url: %q", resp.Assets["m12"])
	}
}

func TestSessionHandlerVideoURL(t *testing.T) {
	store := newSessionStoreStub()
	store.sessions["abc123def456"] = models.Session{
		ShareID: "abc123def456",
		Status:  models.StatusReady,
		Video: &models.Video{
			StoragePath:     "sessions/abc123def456/video/transformation.mp4",
			DurationSeconds: 8,
			Resolution:      "1080p",
		},
	}
	handler := newSessionHandler(store, &quotaStub{}, &quotaStub{}, &assetStoreStub{}, &notifierStub{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/abc123def456/video-url", nil)
	req.SetPathValue("shareId", "abc123def456")
	rec := httptest.NewRecorder()

	handler.VideoURL(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", rec.Code, http.StatusOK)
	}

	var resp map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	url, _ := resp["url"].(string)
	if !strings.Contains(url, "transformation.mp4") || !strings.Contains(url, "expires=7200") {
		t.Fatalf("unexpected video url: %q", url)
	}
	if resp["status"] != models.StatusReady {
		t.Fatalf("expected ready status, got %v", resp["status"])
	}
}

func TestSessionHandlerVideoURLBeforeGeneration(t *testing.T) {
	store := newSessionStoreStub()
	store.sessions["abc123def456"] = models.Session{ShareID: "abc123def456", Status: models.StatusAnalyzed}
	handler := newSessionHandler(store, &quotaStub{}, &quotaStub{}, &assetStoreStub{}, &notifierStub{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/abc123def456/video-url", nil)
	req.SetPathValue("shareId", "abc123def456")
	rec := httptest.NewRecorder()

	handler.VideoURL(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: got %d want %d", rec.Code, http.StatusNotFound)
	}
}

func TestSessionHandlerPreviewPicksLatestVariant(t *testing.T) {
	store := newSessionStoreStub()
	store.sessions["abc123def456"] = models.Session{
		ShareID:   "abc123def456",
		Input:     validProfile(),
		PhotoPath: "uploads/abc123def456/original.jpg",
		Assets: map[string]string{
			"m4":  "sessions/abc123def456/images/m4.jpg",
			"m8":  "sessions/abc123def456/images/m8.jpg",
			"m12": "sessions/abc123def456/images/m12.jpg",
		},
		Status: models.StatusReady,
	}
	handler := newSessionHandler(store, &quotaStub{}, &quotaStub{}, &assetStoreStub{}, &notifierStub{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/abc123def456/preview", nil)
	req.SetPathValue("shareId", "abc123def456")
	rec := httptest.NewRecorder()

	handler.Preview(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", rec.Code, http.StatusOK)
	}

	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !strings.Contains(resp["imageUrl"], "m12.jpg") {
		t.Fatalf("expected m12 variant, got %q", resp["imageUrl"])
	}
	if resp["goal"] != "masa" || resp["level"] != "intermedio" {
		t.Fatalf("unexpected labels: %v", resp)
	}
}

func TestSessionHandlerPreviewFallsBackToPhoto(t *testing.T) {
	store := newSessionStoreStub()
	store.sessions["abc123def456"] = models.Session{
		ShareID:   "abc123def456",
		Input:     validProfile(),
		PhotoPath: "uploads/abc123def456/original.jpg",
		Status:    models.StatusPending,
	}
	handler := newSessionHandler(store, &quotaStub{}, &quotaStub{}, &assetStoreStub{}, &notifierStub{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/abc123def456/preview", nil)
	req.SetPathValue("shareId", "abc123def456")
	rec := httptest.NewRecorder()

	handler.Preview(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", rec.Code, http.StatusOK)
	}

	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !strings.Contains(resp["imageUrl"], "original.jpg") {
		t.Fatalf("expected original photo fallback, got %q", resp["imageUrl"])
	}
}
