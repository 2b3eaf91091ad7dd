// Package client implements the forwarding client: one outbound JSON call per
// hop over a shared connection pool.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/brettbedarf/adaptergw"
	"github.com/brettbedarf/adaptergw/internal/util"
)

// DefaultMaxResponseBytes caps how much of a response body is read
const DefaultMaxResponseBytes = 32 << 20

// Options tune the underlying http.Client. Zero values fall back to net/http defaults.
type Options struct {
	Timeout             time.Duration
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration
	MaxResponseBytes    int64
	// Transport replaces the pooled transport, mainly for tests
	Transport http.RoundTripper
}

// Client implements [adaptergw.Forwarder] over HTTP.
// It is safe for concurrent use; requests share one connection pool.
type Client struct {
	http     *http.Client
	maxBytes int64
}

var _ adaptergw.Forwarder = (*Client)(nil)

// New creates a Client from opts
func New(opts Options) *Client {
	transport := opts.Transport
	if transport == nil {
		transport = &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        opts.MaxIdleConns,
			MaxIdleConnsPerHost: opts.MaxIdleConnsPerHost,
			IdleConnTimeout:     opts.IdleConnTimeout,
		}
	}
	maxBytes := opts.MaxResponseBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxResponseBytes
	}

	return &Client{
		http: &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
		},
		maxBytes: maxBytes,
	}
}

// Get performs a GET against loc and returns the JSON body
func (c *Client) Get(ctx context.Context, loc adaptergw.Location, path string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, loc, path, nil)
}

// Post performs a POST of body against loc and returns the JSON body
func (c *Client) Post(ctx context.Context, loc adaptergw.Location, path string, body json.RawMessage) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, loc, path, body)
}

// Close releases idle pooled connections
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}

// TargetURL builds the URL a call to path on loc is sent to
func TargetURL(loc adaptergw.Location, path string) (string, error) {
	if !loc.Valid() {
		return "", fmt.Errorf("invalid location %q", loc.Addr())
	}
	u, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("invalid path %q: %w", path, err)
	}
	u.Scheme = "http"
	u.Host = loc.Addr()
	return u.String(), nil
}

func (c *Client) newRequest(ctx context.Context, method, target string, body json.RawMessage) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id := adaptergw.RequestID(ctx); id != "" {
		req.Header.Set(adaptergw.RequestIDHeader, id)
	}

	return req, nil
}

func (c *Client) do(ctx context.Context, method string, loc adaptergw.Location, path string, body json.RawMessage) (json.RawMessage, error) {
	logger := util.LoggerFrom(ctx, "Client")

	target, err := TargetURL(loc, path)
	if err != nil {
		return nil, err
	}
	req, err := c.newRequest(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", method, err)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	logger.Trace().
		Str("method", method).
		Str("url", target).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("Outbound call finished")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, c.maxBytes))
		return nil, &StatusError{Method: method, URL: target, Code: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", target, err)
	}
	if int64(len(data)) > c.maxBytes {
		return nil, fmt.Errorf("%s: %w", target, ErrResponseTooLarge)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("%s: %w", target, ErrMalformedResponse)
	}
	return json.RawMessage(data), nil
}
