// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"bufio"
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

// ClientConfig configures the Ollama HTTP client.
type ClientConfig struct {
	// BaseURL is the server address, e.g. http://localhost:11434.
	BaseURL string

	// Timeout bounds non-streaming requests.
	Timeout time.Duration

	// DefaultModel is used when a request does not name a model.
	DefaultModel string
}

// DefaultClientConfig returns sensible defaults for a local server.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		BaseURL:      "http://localhost:11434",
		Timeout:      120 * time.Second,
		DefaultModel: "llama3.2",
	}
}

// Client talks to an Ollama server over HTTP.
type Client struct {
	config ClientConfig

	// httpClient enforces Timeout; streamClient has no client-level timeout
	// because a generation may legitimately run for minutes. Streams are
	// bounded by the caller's context instead.
	httpClient   *http.Client
	streamClient *http.Client
}

// NewClient creates a client with the given configuration. Zero fields fall
// back to DefaultClientConfig values.
func NewClient(cfg ClientConfig) *Client {
	def := DefaultClientConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout == 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = def.DefaultModel
	}
	return &Client{
		config:       cfg,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		streamClient: &http.Client{},
	}
}

// BaseURL returns the configured server address.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// DefaultModel returns the configured default model name.
func (c *Client) DefaultModel() string {
	return c.config.DefaultModel
}

// =============================================================================
// SERVER STATUS
// =============================================================================

// CheckRunning verifies the server answers at all. Uses a short probe timeout
// so a down server fails fast instead of waiting out the full request timeout.
func (c *Client) CheckRunning(ctx context.Context) error {
	probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, c.config.BaseURL+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return connectionError(err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return &ClientError{
			Type:    ErrorTypeServer,
			Message: fmt.Sprintf("server returned status %d", resp.StatusCode),
		}
	}
	return nil
}

// =============================================================================
// MODELS
// =============================================================================

// ListModels returns all installed models.
func (c *Client) ListModels(ctx context.Context) ([]ModelInfo, error) {
	body, err := c.get(ctx, "/api/tags")
	if err != nil {
		return nil, err
	}
	var out ListModelsResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &ClientError{Type: ErrorTypeInvalidResponse, Message: "failed to parse model list", Cause: err}
	}
	return out.Models, nil
}

// ShowModel returns metadata for one model. A 404 maps to ErrModelNotFound.
func (c *Client) ShowModel(ctx context.Context, name string) (*ShowModelResponse, error) {
	body, err := c.post(ctx, "/api/show", ShowModelRequest{Name: name})
	if err != nil {
		var ce *ClientError
		if errors.As(err, &ce) && ce.Type == ErrorTypeServer && strings.Contains(ce.Message, "404") {
			return nil, modelNotFoundError(name)
		}
		return nil, err
	}
	var out ShowModelResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &ClientError{Type: ErrorTypeInvalidResponse, Message: "failed to parse model info", Cause: err}
	}
	return &out, nil
}

// ModelExists reports whether a model is installed locally. Tags may carry
// an implicit ":latest" suffix, so both spellings are compared.
func (c *Client) ModelExists(ctx context.Context, name string) (bool, error) {
	models, err := c.ListModels(ctx)
	if err != nil {
		return false, err
	}
	for _, m := range models {
		if m.Name == name || m.Name == name+":latest" || strings.TrimSuffix(m.Name, ":latest") == name {
			return true, nil
		}
	}
	return false, nil
}

// PullModel downloads a model, reporting progress lines via callback.
func (c *Client) PullModel(ctx context.Context, name string, progress func(PullProgress)) error {
	data, err := json.Marshal(PullRequest{Name: name, Stream: true})
	if err != nil {
		return fmt.Errorf("failed to marshal pull request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/api/pull", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return c.wrapTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if resp.StatusCode == http.StatusNotFound || bytes.Contains(msg, []byte("not found")) {
			return modelNotFoundError(name)
		}
		return &ClientError{
			Type:    ErrorTypeServer,
			Message: fmt.Sprintf("pull failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))),
		}
	}

	scanner := bufio.NewReaderSize(resp.Body, 64*1024)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		line, err := scanner.ReadBytes('\n')
		if len(bytes.TrimSpace(line)) > 0 {
			var p PullProgress
			if jsonErr := json.Unmarshal(line, &p); jsonErr == nil {
				if strings.Contains(strings.ToLower(p.Status), "error") {
					return &ClientError{Type: ErrorTypeServer, Message: p.Status}
				}
				if progress != nil {
					progress(p)
				}
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return &ClientError{Type: ErrorTypeInvalidResponse, Message: "pull stream read failed", Cause: err}
		}
	}
}

// =============================================================================
// CHAT
// =============================================================================

// Chat sends a non-streaming chat request and returns the full response.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if req.Model == "" {
		req.Model = c.config.DefaultModel
	}
	req.Stream = false

	body, err := c.post(ctx, "/api/chat", req)
	if err != nil {
		return nil, c.mapModelError(err, req.Model)
	}
	var out ChatResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &ClientError{Type: ErrorTypeInvalidResponse, Message: "failed to parse chat response", Cause: err}
	}
	return &out, nil
}

// ChatStream sends a streaming chat request, invoking callback per chunk
// until the final done=true chunk. Cancellation flows through ctx.
func (c *Client) ChatStream(ctx context.Context, req ChatRequest, callback StreamCallback) error {
	if req.Model == "" {
		req.Model = c.config.DefaultModel
	}
	req.Stream = true

	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal chat request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/api/chat", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.streamClient.Do(httpReq)
	if err != nil {
		return c.wrapTransportError(err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if resp.StatusCode == http.StatusNotFound || bytes.Contains(msg, []byte("not found")) {
			return modelNotFoundError(req.Model)
		}
		return &ClientError{
			Type:    ErrorTypeServer,
			Message: fmt.Sprintf("chat failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))),
		}
	}

	return NewStreamReader(resp.Body).Process(ctx, callback)
}

// =============================================================================
// HTTP HELPERS
// =============================================================================

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	return c.do(req)
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.wrapTransportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ClientError{Type: ErrorTypeInvalidResponse, Message: "failed to read response", Cause: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &ClientError{
			Type:    ErrorTypeServer,
			Message: fmt.Sprintf("server returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}
	return body, nil
}

// wrapTransportError distinguishes timeouts from connection refusals.
func (c *Client) wrapTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &ClientError{Type: ErrorTypeTimeout, Message: "request timed out", Cause: err}
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &ClientError{Type: ErrorTypeTimeout, Message: "request timed out", Cause: err}
	}
	return connectionError(err)
}

// mapModelError upgrades a generic 404 server error to ErrModelNotFound.
func (c *Client) mapModelError(err error, model string) error {
	var ce *ClientError
	if errors.As(err, &ce) && ce.Type == ErrorTypeServer &&
		(strings.Contains(ce.Message, "404") || strings.Contains(ce.Message, "not found")) {
		return modelNotFoundError(model)
	}
	return err
}
