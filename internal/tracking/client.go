// Package tracking calls the public ride tracking endpoint.
package tracking

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/example/ride-tracking/internal/models"
)

const endpointPath = "/getPublicRideTracking"

var (
	ErrMissingBaseURL  = errors.New("tracking: functions base URL is not configured (set FUNCTIONS_BASE_URL)")
	ErrEmptyRideID     = errors.New("tracking: ride id is required")
	ErrInvalidResponse = errors.New("tracking: invalid server response")
)

// APIError is a non-2xx answer from the tracking endpoint.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return e.Code + ": " + e.Message
	}
	return e.Message
}

// Response mirrors the endpoint's JSON envelope.
type Response struct {
	Success bool                 `json:"success"`
	Ride    *models.RideSnapshot `json:"ride,omitempty"`
	Error   string               `json:"error,omitempty"`
	Code    string               `json:"code,omitempty"`
}

type FetchOptions struct {
	// BaseURL overrides the configured base URL for one call.
	BaseURL string
}

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{BaseURL: baseURL, HTTP: &http.Client{Timeout: timeout}}
}

// ResolveBaseURL picks the override, else the configured URL, without a
// trailing slash.
func ResolveBaseURL(override, configured string) (string, error) {
	if v := strings.TrimSpace(override); v != "" {
		return strings.TrimSuffix(v, "/"), nil
	}
	if v := strings.TrimSpace(configured); v != "" {
		return strings.TrimSuffix(v, "/"), nil
	}
	return "", ErrMissingBaseURL
}

// Fetch requests the public snapshot of one ride. Configuration problems are
// reported before any request is made.
func (c *Client) Fetch(ctx context.Context, rideID string, opts FetchOptions) (Response, error) {
	id := strings.TrimSpace(rideID)
	if id == "" {
		return Response{}, ErrEmptyRideID
	}
	base, err := ResolveBaseURL(opts.BaseURL, c.BaseURL)
	if err != nil {
		return Response{}, err
	}

	body, _ := json.Marshal(map[string]string{"rideId": id})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+endpointPath, bytes.NewReader(body))
	if err != nil {
		return Response{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("tracking: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("tracking: read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Response{}, apiError(resp.StatusCode, raw)
	}

	var out Response
	if err := json.Unmarshal(raw, &out); err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return out, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP == nil {
		return http.DefaultClient
	}
	return c.HTTP
}

// apiError reads error/code from the body when it is a JSON object with
// string fields; anything else degrades to "HTTP {status}".
func apiError(status int, raw []byte) *APIError {
	e := &APIError{Status: status, Message: fmt.Sprintf("HTTP %d", status)}
	var body map[string]any
	if json.Unmarshal(raw, &body) != nil {
		return e
	}
	if msg, ok := body["error"].(string); ok && msg != "" {
		e.Message = msg
	}
	if code, ok := body["code"].(string); ok {
		e.Code = code
	}
	return e
}
