// Package webfetch retrieves page text for the web research pipeline.
package webfetch

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"net/url"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
	"github.com/rs/zerolog"

	"fodmap-research/llm/agents"
	"fodmap-research/llm/providers/shared"
	"fodmap-research/llm/providers/transport"
)

const (
	DefaultUserAgent = "fodmap-research/1.0 (+https://github.com/fodmap-research)"
	DefaultMaxBytes  = 2 << 20
)

// Config holds fetcher configuration
type Config struct {
	UserAgent string
	MaxBytes  int64
	Timeout   time.Duration
}

// Fetcher downloads pages over plain HTTP GET. HTML bodies are reduced to
// their readable article text; anything else is returned as-is.
type Fetcher struct {
	http     *transport.HTTPClient
	maxBytes int64
	logger   zerolog.Logger
}

var _ agents.PageFetcher = (*Fetcher)(nil)

// NewFetcher creates a page fetcher
func NewFetcher(cfg Config, logger zerolog.Logger) *Fetcher {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	return &Fetcher{
		http: transport.NewHTTPClient(shared.ClientOptions{
			Headers: map[string]string{"User-Agent": cfg.UserAgent},
			Timeout: cfg.Timeout,
		}),
		maxBytes: cfg.MaxBytes,
		logger:   logger.With().Str("component", "webfetch").Logger(),
	}
}

// Fetch returns the text of the page at link
func (f *Fetcher) Fetch(ctx context.Context, link string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") {
		return "", fmt.Errorf("invalid page url %q", link)
	}

	resp, err := f.http.Get(ctx, u.String())
	if err != nil {
		return "", err
	}
	contentType := resp.Header.Get("Content-Type")
	body, err := transport.ReadBody(resp, f.maxBytes)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", u, err)
	}

	if !isHTML(contentType, body) {
		return string(body), nil
	}

	article, err := readability.FromReader(bytes.NewReader(body), u)
	if err != nil {
		f.logger.Debug().Err(err).Str("url", u.String()).Msg("Readability failed, using raw body")
		return string(body), nil
	}
	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		return string(body), nil
	}

	f.logger.Debug().
		Str("url", u.String()).
		Str("title", article.Title).
		Int("chars", len(text)).
		Msg("Extracted page text")
	return text, nil
}

func isHTML(contentType string, body []byte) bool {
	if contentType != "" {
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err == nil {
			return mediaType == "text/html" || mediaType == "application/xhtml+xml"
		}
	}
	head := strings.ToLower(string(body[:min(len(body), 512)]))
	return strings.Contains(head, "<html") || strings.Contains(head, "<!doctype html")
}
