// Package api is the HTTP client of the remote finance backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/takmir/kas/internal/encoding"
)

const (
	contentTypeJSON = "application/json"
	maxErrorBody    = 1 << 20
)

// Client talks to the finance backend under a fixed base URL. Cookies set by
// the backend are kept and replayed on every later request.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

type Option func(*Client)

// WithTimeout bounds every request. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithTransport replaces the underlying transport. The logging layer is
// always kept on top of it.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.http.Transport = rt }
}

// New creates a client for baseURL, e.g. "http://localhost:8081/api".
func New(baseURL string, opts ...Option) (*Client, error) {
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http: &http.Client{
			Jar:       jar,
			Timeout:   30 * time.Second,
			Transport: http.DefaultTransport,
		},
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.http.Transport = &loggingTransport{next: c.http.Transport, logger: c.logger}

	return c, nil
}

// RequestOption adjusts a single request.
type RequestOption func(*http.Request)

// WithContentType overrides the default JSON content type, e.g. for
// multipart bodies.
func WithContentType(ct string) RequestOption {
	return func(r *http.Request) { r.Header.Set("Content-Type", ct) }
}

func WithAccept(accept string) RequestOption {
	return func(r *http.Request) { r.Header.Set("Accept", accept) }
}

// Do sends a request and returns the response of a 2xx status. Any other
// outcome is an *Error; the caller owns the body of a returned response.
func (c *Client) Do(ctx context.Context, op Op, method, path string, query url.Values, body io.Reader, opts ...RequestOption) (*http.Response, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, &Error{Op: op, Message: op.Fallback(), Err: fmt.Errorf("creating request: %w", err)}
	}

	req.Header.Set("Content-Type", contentTypeJSON)
	req.Header.Set("Accept", contentTypeJSON)

	for _, opt := range opts {
		opt(req)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, transportError(op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()

		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

		return nil, statusError(op, resp.StatusCode, encoding.DecodeBody(b, resp.Header.Get("Content-Type")))
	}

	return resp, nil
}

// Send issues a request and returns the full response body.
func (c *Client) Send(ctx context.Context, op Op, method, path string, query url.Values, body io.Reader, opts ...RequestOption) ([]byte, error) {
	resp, err := c.Do(ctx, op, method, path, query, body, opts...)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(op, fmt.Errorf("reading body: %w", err))
	}

	return b, nil
}

func (c *Client) sendJSON(ctx context.Context, op Op, method, path string, query url.Values, in any) ([]byte, error) {
	var body io.Reader

	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, &Error{Op: op, Message: op.Fallback(), Err: fmt.Errorf("encoding body: %w", err)}
		}

		body = bytes.NewReader(b)
	}

	return c.Send(ctx, op, method, path, query, body)
}
