// Package api is the HTTP client for the clinical records backend.
//
// Every authenticated request carries the session's bearer token and a fresh
// X-Request-ID. A 401 on any of them runs the unauthorized handler before
// ErrUnauthorized is returned, so session expiry is handled in one place.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/NicolasHaas/medscribe/pkg/version"
)

const (
	DefaultTimeout       = 30 * time.Second
	DefaultUploadTimeout = 120 * time.Second
)

// TokenSource supplies the current bearer token; "" means signed out.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func() string

func (f TokenFunc) Token() string { return f() }

// Client talks to one backend.
type Client struct {
	base           *url.URL
	http           *http.Client
	upload         *http.Client
	tokens         TokenSource
	onUnauthorized func(requestID string)
}

// Option configures a Client.
type Option func(*Client)

// WithTimeouts sets the request timeout for JSON calls and for uploads.
// Zero keeps the default.
func WithTimeouts(request, upload time.Duration) Option {
	return func(c *Client) {
		if request > 0 {
			c.http.Timeout = request
		}
		if upload > 0 {
			c.upload.Timeout = upload
		}
	}
}

// WithTransport replaces the underlying round tripper (tests use the
// httptest server's client transport).
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.http.Transport = rt
		c.upload.Transport = rt
	}
}

// WithUnauthorizedHandler registers fn to run on every 401 from an
// authenticated call.
func WithUnauthorizedHandler(fn func(requestID string)) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

// New creates a client for the backend at baseURL.
func New(baseURL string, tokens TokenSource, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("api: parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("api: base url %q must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("api: base url %q has no host", baseURL)
	}
	c := &Client{
		base:   u,
		http:   &http.Client{Timeout: DefaultTimeout},
		upload: &http.Client{Timeout: DefaultUploadTimeout},
		tokens: tokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the backend address.
func (c *Client) BaseURL() string { return c.base.String() }

// Secure reports whether data sent to the backend is protected in transit:
// HTTPS, or plain HTTP to a loopback host.
func (c *Client) Secure() bool {
	if c.base.Scheme == "https" {
		return true
	}
	host := c.base.Hostname()
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// Response is a completed exchange with any status other than 401.
type Response struct {
	Status    int
	Body      []byte
	Header    http.Header
	RequestID string
}

// OK reports a 2xx status.
func (r *Response) OK() bool { return r.Status >= 200 && r.Status < 300 }

// Err converts a non-2xx response into an *Error.
func (r *Response) Err() error {
	if r.OK() {
		return nil
	}
	return &Error{Status: r.Status, Detail: ParseDetail(r.Body), RequestID: r.RequestID}
}

// Do sends an authenticated request with an optional JSON body and returns
// the raw response. Non-2xx statuses other than 401 are not errors here.
func (c *Client) Do(ctx context.Context, method, path string, body any) (*Response, error) {
	var reader io.Reader
	contentType := ""
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("api: encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
		contentType = "application/json"
	}
	return c.send(ctx, c.http, method, path, reader, contentType, true)
}

// GetJSON fetches path and decodes a 2xx body into out.
func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	resp, err := c.Do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if err := resp.Err(); err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("api: decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, hc *http.Client, method, path string, body io.Reader, contentType string, auth bool) (*Response, error) {
	target := c.base.String() + "/" + strings.TrimPrefix(path, "/")
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("api: build %s %s: %w", method, path, err)
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if auth && c.tokens != nil {
		if tok := c.tokens.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		slog.Debug("api request failed", "method", method, "path", pathOnly(path), "request_id", requestID, "err", err)
		return nil, fmt.Errorf("api: %s %s: %w", method, pathOnly(path), err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("api: read %s %s: %w", method, pathOnly(path), err)
	}
	slog.Debug("api request",
		"method", method,
		"path", pathOnly(path),
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration", time.Since(start),
	)

	if resp.StatusCode == http.StatusUnauthorized && auth {
		if c.onUnauthorized != nil {
			c.onUnauthorized(requestID)
		}
		return nil, ErrUnauthorized
	}

	return &Response{
		Status:    resp.StatusCode,
		Body:      data,
		Header:    resp.Header,
		RequestID: requestID,
	}, nil
}

func pathOnly(p string) string {
	if i := strings.IndexByte(p, '?'); i >= 0 {
		return p[:i]
	}
	return p
}

// IsTransport reports whether err came from the network or from decoding,
// rather than from a status the backend chose.
func IsTransport(err error) bool {
	if err == nil || errors.Is(err, ErrUnauthorized) {
		return false
	}
	var apiErr *Error
	return !errors.As(err, &apiErr)
}
