// Package tryon wraps the external try-on synthesis HTTP API: submit a job,
// probe its status, download the composited result. Retry policy deliberately
// lives in the worker, not here.
package tryon

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"tryon/internal/infra"
)

// ErrMissingAPIKey indicates that the client was configured without credentials.
var ErrMissingAPIKey = errors.New("tryon: api key is required")

// RemoteRejectedError reports a submission the service refused. Body carries
// the raw response for diagnostics.
type RemoteRejectedError struct {
	StatusCode int
	Body       string
}

func (e *RemoteRejectedError) Error() string {
	return fmt.Sprintf("tryon: remote rejected submission: status %d: %s", e.StatusCode, e.Body)
}

// RemoteUnreachableError reports a transport failure or an undecodable
// response on a status probe.
type RemoteUnreachableError struct {
	Op  string
	Err error
}

func (e *RemoteUnreachableError) Error() string {
	return fmt.Sprintf("tryon: remote unreachable during %s: %v", e.Op, e.Err)
}

func (e *RemoteUnreachableError) Unwrap() error { return e.Err }

// AssetFetchError reports a failure downloading the final composited image.
type AssetFetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *AssetFetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("tryon: fetch asset %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("tryon: fetch asset %s: status %d", e.URL, e.StatusCode)
}

func (e *AssetFetchError) Unwrap() error { return e.Err }

// RemoteState classifies the status the remote service reports for a job.
type RemoteState string

const (
	RemoteStateCompleted RemoteState = "completed"
	RemoteStateFailed    RemoteState = "failed"
	RemoteStatePending   RemoteState = "pending"
)

// StatusResult is a single decoded status probe.
type StatusResult struct {
	State    RemoteState
	ImageURL string
	Raw      string
}

// Options configures the try-on API client.
type Options struct {
	APIKey         string
	BaseURL        string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// Client performs HTTP calls against the try-on synthesis API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *infra.Logger
}

type submitResponse struct {
	JobID string `json:"jobId"`
}

type statusResponse struct {
	Status   string `json:"status"`
	ImageURL string `json:"imageUrl"`
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) (*Client, error) {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 45 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://tryon-api.com/api/v1"
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// HasCredentials reports whether the client can perform remote calls.
func (c *Client) HasCredentials() bool {
	return c.apiKey != ""
}

// Submit posts the prepared person and garment images and returns the remote
// job identifier. Any status other than 202 Accepted is a rejection.
func (c *Client) Submit(ctx context.Context, personImage, garmentImage []byte) (string, error) {
	if !c.HasCredentials() {
		return "", ErrMissingAPIKey
	}
	if len(personImage) == 0 || len(garmentImage) == 0 {
		return "", errors.New("tryon: both person and garment images are required")
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for _, part := range []struct {
		field string
		name  string
		data  []byte
	}{
		{"person_images", "person.jpg", personImage},
		{"garment_images", "garment.jpg", garmentImage},
	} {
		fw, err := writer.CreateFormFile(part.field, part.name)
		if err != nil {
			return "", fmt.Errorf("tryon: build multipart: %w", err)
		}
		if _, err := fw.Write(part.data); err != nil {
			return "", fmt.Errorf("tryon: build multipart: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("tryon: build multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/tryon", &body)
	if err != nil {
		return "", fmt.Errorf("tryon: build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &RemoteUnreachableError{Op: "submit", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &RemoteUnreachableError{Op: "submit", Err: err}
	}
	if resp.StatusCode != http.StatusAccepted {
		return "", &RemoteRejectedError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	var decoded submitResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", &RemoteUnreachableError{Op: "submit", Err: fmt.Errorf("decode response: %w", err)}
	}
	if decoded.JobID == "" {
		return "", &RemoteRejectedError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	c.logger.Debug().Str("remote_job_id", decoded.JobID).Msg("tryon: job submitted")
	return decoded.JobID, nil
}

// FetchStatus performs a single status probe for a remote job.
func (c *Client) FetchStatus(ctx context.Context, remoteJobID string) (*StatusResult, error) {
	if !c.HasCredentials() {
		return nil, ErrMissingAPIKey
	}
	if strings.TrimSpace(remoteJobID) == "" {
		return nil, errors.New("tryon: remote job id is required")
	}

	endpoint := c.baseURL + "/tryon/status/" + url.PathEscape(remoteJobID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("tryon: build status request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &RemoteUnreachableError{Op: "status", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RemoteUnreachableError{Op: "status", Err: err}
	}

	var decoded statusResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, &RemoteUnreachableError{Op: "status", Err: fmt.Errorf("decode response: %w", err)}
	}

	result := &StatusResult{ImageURL: decoded.ImageURL, Raw: strings.TrimSpace(string(raw))}
	switch decoded.Status {
	case "completed":
		result.State = RemoteStateCompleted
	case "failed":
		result.State = RemoteStateFailed
	default:
		// Anything else ("processing", "queued", unknown) counts as pending.
		result.State = RemoteStatePending
	}
	return result, nil
}

// FetchAsset downloads the final composited image.
func (c *Client) FetchAsset(ctx context.Context, assetURL string) ([]byte, error) {
	parsed, err := url.Parse(strings.TrimSpace(assetURL))
	if err != nil || parsed.Scheme == "" {
		return nil, &AssetFetchError{URL: assetURL, Err: errors.New("invalid asset url")}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return nil, &AssetFetchError{URL: assetURL, Err: err}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &AssetFetchError{URL: assetURL, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &AssetFetchError{URL: assetURL, StatusCode: resp.StatusCode}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &AssetFetchError{URL: assetURL, Err: err}
	}
	return data, nil
}
