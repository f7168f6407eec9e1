package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"fodmap-research/llm/providers/shared"
)

// HTTPClient provides a tuned HTTP client for provider and gateway requests.
// Every call is a single attempt; failures are returned to the caller as-is.
type HTTPClient struct {
	client *http.Client
	opts   shared.ClientOptions
}

// NewHTTPClient creates a new HTTP client with the specified options
func NewHTTPClient(opts shared.ClientOptions) *HTTPClient {
	if opts.Timeout == 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.MaxIdleConns == 0 {
		opts.MaxIdleConns = 10
	}
	if opts.IdleConnTTL == 0 {
		opts.IdleConnTTL = 90 * time.Second
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        opts.MaxIdleConns,
		MaxIdleConnsPerHost: opts.MaxIdleConns,
		IdleConnTimeout:     opts.IdleConnTTL,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   opts.Timeout,
	}

	return &HTTPClient{
		client: client,
		opts:   opts,
	}
}

// StandardClient exposes the underlying *http.Client for SDKs that take one
func (c *HTTPClient) StandardClient() *http.Client {
	return c.client
}

// BaseURL returns the configured base URL
func (c *HTTPClient) BaseURL() string {
	return c.opts.BaseURL
}

// Do performs an HTTP request
func (c *HTTPClient) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if req.Body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", "fodmap-research/1.0")
	}

	for key, value := range c.opts.Headers {
		req.Header.Set(key, value)
	}

	if c.opts.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)
	}

	resp, err := c.client.Do(req.WithContext(ctx))
	if err != nil {
		if ctx.Err() != nil {
			return nil, &shared.ProviderError{
				Code:    shared.ErrTimeout,
				Message: fmt.Sprintf("request to %s cancelled: %v", req.URL.Host, ctx.Err()),
				Err:     ctx.Err(),
			}
		}
		return nil, &shared.ProviderError{
			Code:    shared.ErrUnavailable,
			Message: fmt.Sprintf("request to %s failed: %v", req.URL.Host, err),
			Err:     err,
		}
	}

	return resp, nil
}

// Post performs a POST request with a JSON encoded body
func (c *HTTPClient) Post(ctx context.Context, url string, body any) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, req)
}

// Get performs a GET request to the specified URL
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, req)
}

// ReadBody reads at most limit bytes of the response body and closes it.
// A non-2xx status is turned into a ProviderError carrying the body text.
func ReadBody(resp *http.Response, limit int64) ([]byte, error) {
	defer resp.Body.Close()

	if limit <= 0 {
		limit = 10 << 20
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := string(body)
		if len(snippet) > 512 {
			snippet = snippet[:512]
		}
		return nil, shared.ErrorFromStatus(resp.StatusCode, snippet)
	}

	return body, nil
}
