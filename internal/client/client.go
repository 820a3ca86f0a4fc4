// Package client builds authenticated requests against the back-office REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TokenSource provides the bearer token attached to every request.
type TokenSource interface {
	Token() (string, bool)
}

// Client talks to the REST API. It never retries; errors surface unchanged
// to the caller as *Error values.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Tokens  TokenSource
}

// New creates a client for baseURL. A zero timeout means requests wait
// indefinitely.
func New(baseURL string, tokens TokenSource, timeout time.Duration) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
		Tokens:  tokens,
	}
}

// Do sends a request and decodes a JSON response into out (which may be nil).
// body is nil, a *Multipart, or any JSON-encodable value.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	reqID := uuid.NewString()
	req.Header.Set("X-Request-Id", reqID)

	start := time.Now()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		slog.Warn("api request failed", "id", reqID, "method", method, "path", path, "error", err)
		return &Error{Kind: KindNetwork, Method: method, Path: path, Err: fmt.Errorf("%w: %w", ErrNoConnection, err)}
	}
	defer resp.Body.Close()

	slog.Debug("api request", "id", reqID, "method", method, "path", path,
		"status", resp.StatusCode, "duration", time.Since(start).Round(time.Millisecond))

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Kind: KindNetwork, Method: method, Path: path, Status: resp.StatusCode,
			Err: fmt.Errorf("%w: reading response: %w", ErrNoConnection, err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{
			Kind:    KindHTTP,
			Method:  method,
			Path:    path,
			Status:  resp.StatusCode,
			Message: serverMessage(data),
		}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &Error{Kind: KindDecode, Method: method, Path: path, Status: resp.StatusCode,
			Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}

// Get is a shorthand for Do with GET and no body.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	var contentType string

	switch b := body.(type) {
	case nil:
	case *Multipart:
		r, ct, err := b.Encode()
		if err != nil {
			return nil, fmt.Errorf("encoding multipart body: %w", err)
		}
		reader, contentType = r, ct
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		reader, contentType = bytes.NewReader(data), "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.Tokens != nil {
		if token, ok := c.Tokens.Token(); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return req, nil
}

// serverMessage extracts the human-readable message from an error body.
func serverMessage(data []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}

// AssetURL resolves a stored file path against the asset base URL. Absolute
// URLs are returned unchanged; an empty path yields an empty string.
func AssetURL(base, path string) string {
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
