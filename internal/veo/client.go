package veo

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Job describes a video-generation request to the vendor.
type Job struct {
	Prompt          string
	ImageMIME       string
	ImageData       []byte
	DurationSeconds int
	Resolution      string
	AspectRatio     string
	GenerateAudio   bool
}

// JobStatus is one observation of a long-running vendor operation.
type JobStatus struct {
	Done     bool
	Error    string
	VideoURI string
}

// JobClient is the narrow submit/poll/fetch surface the orchestrator needs
// from the vendor, so the orchestration stays vendor-agnostic and testable.
type JobClient interface {
	Start(ctx context.Context, job Job) (string, error)
	Poll(ctx context.Context, operation string) (JobStatus, error)
	Fetch(ctx context.Context, uri string) ([]byte, error)
}

const defaultVeoBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Client talks to the Veo long-running prediction API over REST.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a Veo client for the given model identifier.
func NewClient(apiKey, model string) *Client {
	return &Client{
		apiKey:     apiKey,
		model:      model,
		baseURL:    defaultVeoBaseURL,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}
}

type predictRequest struct {
	Instances []struct {
		Prompt string `json:"prompt"`
		Image  *struct {
			BytesBase64Encoded string `json:"bytesBase64Encoded"`
			MimeType           string `json:"mimeType"`
		} `json:"image,omitempty"`
	} `json:"instances"`
	Parameters struct {
		AspectRatio      string `json:"aspectRatio,omitempty"`
		Resolution       string `json:"resolution,omitempty"`
		DurationSeconds  int    `json:"durationSeconds,omitempty"`
		GenerateAudio    bool   `json:"generateAudio,omitempty"`
		PersonGeneration string `json:"personGeneration,omitempty"`
		SampleCount      int    `json:"sampleCount,omitempty"`
	} `json:"parameters"`
}

type operationResponse struct {
	Name  string `json:"name"`
	Done  bool   `json:"done"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
	Response *struct {
		GenerateVideoResponse struct {
			GeneratedSamples []struct {
				Video struct {
					URI string `json:"uri"`
				} `json:"video"`
			} `json:"generatedSamples"`
		} `json:"generateVideoResponse"`
	} `json:"response,omitempty"`
}

// Start submits the generation job and returns the operation name to poll.
func (c *Client) Start(ctx context.Context, job Job) (string, error) {
	var reqBody predictRequest
	reqBody.Instances = make([]struct {
		Prompt string `json:"prompt"`
		Image  *struct {
			BytesBase64Encoded string `json:"bytesBase64Encoded"`
			MimeType           string `json:"mimeType"`
		} `json:"image,omitempty"`
	}, 1)
	reqBody.Instances[0].Prompt = job.Prompt
	if len(job.ImageData) > 0 {
		reqBody.Instances[0].Image = &struct {
			BytesBase64Encoded string `json:"bytesBase64Encoded"`
			MimeType           string `json:"mimeType"`
		}{
			BytesBase64Encoded: base64.StdEncoding.EncodeToString(job.ImageData),
			MimeType:           job.ImageMIME,
		}
	}
	reqBody.Parameters.AspectRatio = job.AspectRatio
	reqBody.Parameters.Resolution = job.Resolution
	reqBody.Parameters.DurationSeconds = job.DurationSeconds
	reqBody.Parameters.GenerateAudio = job.GenerateAudio
	reqBody.Parameters.PersonGeneration = "allow_adult"
	reqBody.Parameters.SampleCount = 1

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("veo: marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:predictLongRunning", c.baseURL, c.model)
	body, err := c.do(ctx, http.MethodPost, url, payload)
	if err != nil {
		return "", err
	}

	var op operationResponse
	if err := json.Unmarshal(body, &op); err != nil {
		return "", fmt.Errorf("veo: decode operation: %w", err)
	}
	if op.Name == "" {
		return "", fmt.Errorf("veo: no operation name in response")
	}

	return op.Name, nil
}

// Poll fetches the current state of a long-running operation.
func (c *Client) Poll(ctx context.Context, operation string) (JobStatus, error) {
	url := fmt.Sprintf("%s/%s", c.baseURL, operation)
	body, err := c.do(ctx, http.MethodGet, url, nil)
	if err != nil {
		return JobStatus{}, err
	}

	var op operationResponse
	if err := json.Unmarshal(body, &op); err != nil {
		return JobStatus{}, fmt.Errorf("veo: decode operation: %w", err)
	}

	status := JobStatus{Done: op.Done}
	if op.Error != nil {
		status.Error = op.Error.Message
	}
	if op.Response != nil && len(op.Response.GenerateVideoResponse.GeneratedSamples) > 0 {
		status.VideoURI = op.Response.GenerateVideoResponse.GeneratedSamples[0].Video.URI
	}

	return status, nil
}

// Fetch downloads the generated video bytes.
func (c *Client) Fetch(ctx context.Context, uri string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, uri, nil)
}

func (c *Client) do(ctx context.Context, method, url string, payload []byte) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("veo: create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("veo: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("veo: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("veo: api error: %d - %s", resp.StatusCode, string(body))
	}

	return body, nil
}

var _ JobClient = (*Client)(nil)
