package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/forma-labs/backend/internal/logging"
	"github.com/forma-labs/backend/internal/models"
)

const detachTimeout = 10 * time.Second

// ErrNotConfigured is returned when email delivery is requested but no
// provider credentials were supplied.
var ErrNotConfigured = errors.New("email delivery is not configured")

// EmailSender delivers a single HTML email.
type EmailSender interface {
	Send(ctx context.Context, to, subject, html string) error
}

// Notifier fans session events out to the configured webhook and email
// channel. Delivery of creation events is best-effort: failures are logged
// and never surface to the request that triggered them.
type Notifier struct {
	WebhookURL string
	BaseURL    string
	Email      EmailSender

	httpClient *http.Client
}

// NewNotifier constructs a notifier. WebhookURL and sender may be empty/nil;
// the corresponding channel is then skipped.
func NewNotifier(webhookURL, baseURL string, sender EmailSender) *Notifier {
	return &Notifier{
		WebhookURL: webhookURL,
		BaseURL:    baseURL,
		Email:      sender,
		httpClient: &http.Client{Timeout: detachTimeout},
	}
}

// ShareURL is the public page for a session.
func (n *Notifier) ShareURL(shareID string) string {
	return fmt.Sprintf("%s/s/%s", n.BaseURL, shareID)
}

// SessionCreated announces a new session on both channels. It detaches from
// the request context so a client disconnect does not cancel delivery.
func (n *Notifier) SessionCreated(ctx context.Context, session models.Session) {
	logger := logging.FromContext(ctx)

	if n.WebhookURL != "" {
		go n.deliverWebhook(logger, session)
	}
	if n.Email != nil && session.Email != "" {
		go n.deliverConfirmation(logger, session)
	}
}

type webhookEvent struct {
	Type      string         `json:"type"`
	ShareID   string         `json:"shareId"`
	Email     string         `json:"email,omitempty"`
	Input     models.Profile `json:"input"`
	Source    string         `json:"source"`
	CreatedAt time.Time      `json:"createdAt"`
}

func (n *Notifier) deliverWebhook(logger *slog.Logger, session models.Session) {
	ctx, cancel := context.WithTimeout(context.Background(), detachTimeout)
	defer cancel()

	payload, err := json.Marshal(webhookEvent{
		Type:      "session_created",
		ShareID:   session.ShareID,
		Email:     session.Email,
		Input:     session.Input,
		Source:    "wizard",
		CreatedAt: session.CreatedAt,
	})
	if err != nil {
		logger.Error("encode webhook event", "shareId", session.ShareID, "error", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		logger.Error("create webhook request", "shareId", session.ShareID, "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		logger.Error("deliver webhook", "shareId", session.ShareID, "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		logger.Error("webhook rejected", "shareId", session.ShareID, "status", resp.StatusCode)
	}
}

func (n *Notifier) deliverConfirmation(logger *slog.Logger, session models.Session) {
	ctx, cancel := context.WithTimeout(context.Background(), detachTimeout)
	defer cancel()

	subject := "Tu transformación está en marcha"
	html := fmt.Sprintf(
		`<p>Hemos recibido tu foto y tus datos.</p>
<p>Tu proyección estará lista en unos minutos. Podrás verla en
<a href="%s">%s</a>.</p>`,
		n.ShareURL(session.ShareID), n.ShareURL(session.ShareID))

	if err := n.Email.Send(ctx, session.Email, subject, html); err != nil {
		logger.Error("send confirmation email", "shareId", session.ShareID, "error", err)
	}
}

// ResultsEmail sends the results link synchronously; the caller decides how
// to report a failure.
func (n *Notifier) ResultsEmail(ctx context.Context, to, shareID string) error {
	if n.Email == nil {
		return ErrNotConfigured
	}

	subject := "Tu proyección de 12 meses está lista"
	html := fmt.Sprintf(
		`<p>Tu transformación proyectada te espera.</p>
<p><a href="%s">Ver mi proyección</a></p>`,
		n.ShareURL(shareID))

	if err := n.Email.Send(ctx, to, subject, html); err != nil {
		return fmt.Errorf("send results email: %w", err)
	}

	return nil
}
