// Package controller talks to the Android drone-controller HTTP server used
// in direct control mode. It is an external collaborator of the broker core:
// nothing here shares state with command fan-out.
package controller

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
)

// Move is one virtual-stick move in controller units. Stick values are
// normalized floats; the controller handles timing internally.
type Move struct {
	LeftX      float64 `json:"leftX"`
	LeftY      float64 `json:"leftY"`
	RightX     float64 `json:"rightX"`
	RightY     float64 `json:"rightY"`
	DurationMs int     `json:"durationMs"`
	Hz         int     `json:"hz"`
}

// Client is the narrow controller surface the direct-control endpoints and
// the move runner depend on.
type Client interface {
	Health(ctx context.Context) (map[string]any, error)
	EnableVirtualStick(ctx context.Context, enabled bool) (map[string]any, error)
	Stop(ctx context.Context) (map[string]any, error)
	MoveSequence(ctx context.Context, moves []Move, defaultHz int) (map[string]any, error)
	TakePhoto(ctx context.Context, uploadURL string) (map[string]any, error)
}

// ErrNoBaseURL is returned when direct control is attempted without a
// configured controller address.
var ErrNoBaseURL = errors.New("controller base URL is not configured")

// HTTPClient implements Client against the controller's REST endpoints:
//
//	GET  /v1/drone/status
//	POST /v1/drone/vs/enable       {"enable": true}
//	POST /v1/drone/vs/moveSequence {"moves": [...], "defaultHz": 25}
//	POST /v1/drone/vs/stop
//	POST /v1/drone/media/photo     {"uploadUrl": "http://..."}
type HTTPClient struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
}

// NewHTTPClient creates a client for the controller at baseURL. The API key
// is sent as X-API-Key on every request when non-empty.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration) (*HTTPClient, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, ErrNoBaseURL
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpc:   &http.Client{Timeout: timeout},
	}, nil
}

// BaseURL returns the configured controller address.
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

func (c *HTTPClient) do(ctx context.Context, method, path string, payload any) (map[string]any, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshaling request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("controller request %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading controller response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("controller returned %d for %s %s: %s", resp.StatusCode, method, path, strings.TrimSpace(string(raw)))
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		// Controller occasionally answers with plain text.
		return map[string]any{"raw": string(raw)}, nil
	}
	return decoded, nil
}

// Health probes the controller's status endpoint.
func (c *HTTPClient) Health(ctx context.Context) (map[string]any, error) {
	return c.do(ctx, http.MethodGet, "/v1/drone/status", nil)
}

// EnableVirtualStick toggles virtual-stick mode.
func (c *HTTPClient) EnableVirtualStick(ctx context.Context, enabled bool) (map[string]any, error) {
	return c.do(ctx, http.MethodPost, "/v1/drone/vs/enable", map[string]any{"enable": enabled})
}

// Stop halts any in-flight movement.
func (c *HTTPClient) Stop(ctx context.Context) (map[string]any, error) {
	return c.do(ctx, http.MethodPost, "/v1/drone/vs/stop", map[string]any{})
}

// MoveSequence submits a batch of moves in one call; the controller handles
// per-tick timing itself.
func (c *HTTPClient) MoveSequence(ctx context.Context, moves []Move, defaultHz int) (map[string]any, error) {
	return c.do(ctx, http.MethodPost, "/v1/drone/vs/moveSequence", map[string]any{
		"moves":     moves,
		"defaultHz": defaultHz,
	})
}

// TakePhoto triggers the camera; uploadURL may be empty when the controller
// should keep the artifact local.
func (c *HTTPClient) TakePhoto(ctx context.Context, uploadURL string) (map[string]any, error) {
	return c.do(ctx, http.MethodPost, "/v1/drone/media/photo", map[string]any{"uploadUrl": uploadURL})
}
