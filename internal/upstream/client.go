// Package upstream is the HTTP client for the backend API that owns all
// business data. The gateway forwards requests verbatim and treats bodies as
// opaque bytes: responses are never parsed and re-serialized, so the browser
// receives exactly what the backend produced.
package upstream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// Request describes one outbound call. Body carries buffered bytes (JSON
// proxying); BodyReader streams without buffering (multipart uploads). Set at
// most one of them.
type Request struct {
	Method      string
	Path        string
	RawQuery    string
	Body        []byte
	BodyReader  io.Reader
	ContentType string
	Accept      string
	Token       string
}

// Response is the backend's reply with the raw body preserved.
type Response struct {
	Status      int
	Body        []byte
	ContentType string
}

// OK reports whether the status is in the 2xx range.
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Client talks to the backend API base URL.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client. timeout of zero disables the client-side deadline,
// matching the trust the console has historically placed in the backend;
// set upstream.timeout to bound hung calls.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the configured backend origin.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do forwards one request and buffers the full response. The bearer token is
// attached when present, Accept defaults to application/json, and
// Content-Type is sent only alongside a body. Cache-Control: no-store keeps
// intermediaries from caching authenticated calls.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	target := c.baseURL + req.Path
	if req.RawQuery != "" {
		target += "?" + req.RawQuery
	}

	var body io.Reader
	switch {
	case req.BodyReader != nil:
		body = req.BodyReader
	case len(req.Body) > 0:
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}

	if req.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.Token)
	}

	accept := req.Accept
	if accept == "" {
		accept = "application/json"
	}
	httpReq.Header.Set("Accept", accept)

	if body != nil {
		contentType := req.ContentType
		if contentType == "" {
			contentType = "application/json"
		}
		httpReq.Header.Set("Content-Type", contentType)
	}

	httpReq.Header.Set("Cache-Control", "no-store")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read upstream response: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/json"
	}

	return &Response{
		Status:      resp.StatusCode,
		Body:        raw,
		ContentType: contentType,
	}, nil
}

// IsTimeout reports whether err is a deadline or network timeout, so callers
// can answer 504 instead of a generic 502.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
