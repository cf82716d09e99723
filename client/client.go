// Package client provides a small HTTP client for the Forma backend API,
// including a poller that follows a session until it reaches a terminal
// state.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/forma-labs/backend/internal/models"
)

// Client talks to a Forma backend instance.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New constructs a client for the given base URL, e.g. "http://localhost:8080".
func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Minute},
	}
}

// Session is the public projection returned by the backend.
type Session struct {
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

// CreateSessionRequest is the intake payload.
type CreateSessionRequest struct {
	Email     string         `json:"email,omitempty"`
	Input     models.Profile `json:"input"`
	PhotoPath string         `json:"photoPath"`
}

// GenerateVideoOptions tune a generation request; zero values use server
// defaults.
type GenerateVideoOptions struct {
	DurationSeconds int    `json:"durationSeconds,omitempty"`
	Resolution      string `json:"resolution,omitempty"`
	AspectRatio     string `json:"aspectRatio,omitempty"`
}

// Poll intervals matched to how quickly each artifact tends to land: image
// variants arrive within seconds of analysis, videos take minutes.
const (
	DefaultPollInterval      = 2 * time.Second
	DefaultVideoPollInterval = 5 * time.Second
)

// APIError is a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// CreateSession submits a new session and returns its shareId.
func (c *Client) CreateSession(ctx context.Context, req CreateSessionRequest) (string, error) {
	var out struct {
		SessionID string `json:"sessionId"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/sessions", req, &out); err != nil {
		return "", err
	}
	return out.SessionID, nil
}

// GetSession fetches the current session projection.
func (c *Client) GetSession(ctx context.Context, shareID string) (Session, error) {
	var out Session
	if err := c.do(ctx, http.MethodGet, "/api/v1/sessions/"+shareID, nil, &out); err != nil {
		return Session{}, err
	}
	return out, nil
}

// Analyze triggers model analysis for a session.
func (c *Client) Analyze(ctx context.Context, shareID string) error {
	payload := map[string]string{"sessionId": shareID}
	return c.do(ctx, http.MethodPost, "/api/v1/analyze", payload, nil)
}

// GenerateVideo triggers video generation and blocks until the backend
// responds, which can take several minutes.
func (c *Client) GenerateVideo(ctx context.Context, shareID string, opts GenerateVideoOptions) (*models.Video, error) {
	payload := struct {
		SessionID string `json:"sessionId"`
		GenerateVideoOptions
	}{SessionID: shareID, GenerateVideoOptions: opts}

	var out struct {
		Video *models.Video `json:"video"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/generate-video", payload, &out); err != nil {
		return nil, err
	}
	return out.Video, nil
}

// PollUntilTerminal re-fetches the session on a fixed interval until its
// status is ready or failed, returning the final projection. The context
// bounds the overall wait. Pass DefaultVideoPollInterval when waiting on
// video generation.
func (c *Client) PollUntilTerminal(ctx context.Context, shareID string, interval time.Duration) (Session, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		session, err := c.GetSession(ctx, shareID)
		if err != nil {
			return Session{}, err
		}
		if models.TerminalStatus(session.Status) {
			return session, nil
		}

		select {
		case <-ctx.Done():
			return Session{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var reader io.Reader
	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr struct {
			Error string `json:"error"`
		}
		message := strings.TrimSpace(string(body))
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error != "" {
			message = apiErr.Error
		}
		return &APIError{StatusCode: resp.StatusCode, Message: message}
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}

	return nil
}
