// Package websearch is the ranked web search gateway backed by the Bing Web
// Search v7 API.
package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"fodmap-research/llm/agents"
	"fodmap-research/llm/providers/shared"
	"fodmap-research/llm/providers/transport"
)

const DefaultEndpoint = "https://api.bing.microsoft.com/v7.0/search"

// Config holds Bing client configuration
type Config struct {
	APIKey   string
	Endpoint string
	// Count is the number of results requested, 0 leaves it to the API.
	Count   int
	Market  string
	Timeout time.Duration
}

// Client queries the Bing Web Search API
type Client struct {
	http     *transport.HTTPClient
	endpoint string
	count    int
	market   string
	logger   zerolog.Logger
}

var _ agents.RankedSearcher = (*Client)(nil)

type bingResponse struct {
	QueryContext struct {
		OriginalQuery string `json:"originalQuery"`
	} `json:"queryContext"`
	WebPages *struct {
		Value []struct {
			Name    string `json:"name"`
			URL     string `json:"url"`
			Snippet string `json:"snippet"`
		} `json:"value"`
	} `json:"webPages"`
}

// NewClient creates a Bing search client
func NewClient(cfg Config, logger zerolog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, &shared.ProviderError{
			Code:    shared.ErrAuth,
			Message: "bing api key is required",
		}
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}

	return &Client{
		http: transport.NewHTTPClient(shared.ClientOptions{
			BaseURL: cfg.Endpoint,
			Headers: map[string]string{"Ocp-Apim-Subscription-Key": cfg.APIKey},
			Timeout: cfg.Timeout,
		}),
		endpoint: cfg.Endpoint,
		count:    cfg.Count,
		market:   cfg.Market,
		logger:   logger.With().Str("component", "websearch").Logger(),
	}, nil
}

// Search returns the ranked pages for query
func (c *Client) Search(ctx context.Context, query string) (agents.SearchResponse, error) {
	if strings.TrimSpace(query) == "" {
		return agents.SearchResponse{}, fmt.Errorf("search query is empty")
	}

	params := url.Values{}
	params.Set("q", query)
	if c.count > 0 {
		params.Set("count", strconv.Itoa(c.count))
	}
	if c.market != "" {
		params.Set("mkt", c.market)
	}

	c.logger.Info().Str("query", query).Msg("Searching")

	resp, err := c.http.Get(ctx, c.endpoint+"?"+params.Encode())
	if err != nil {
		return agents.SearchResponse{}, err
	}
	body, err := transport.ReadBody(resp, 0)
	if err != nil {
		return agents.SearchResponse{}, err
	}

	var raw bingResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return agents.SearchResponse{}, &shared.ProviderError{
			Code:    shared.ErrInvalidResponse,
			Message: fmt.Sprintf("failed to decode search response: %v", err),
			Err:     err,
		}
	}

	out := agents.SearchResponse{
		OriginalQuery: raw.QueryContext.OriginalQuery,
		Pages:         []agents.WebPage{},
	}
	if out.OriginalQuery == "" {
		out.OriginalQuery = query
	}
	if raw.WebPages != nil {
		for _, p := range raw.WebPages.Value {
			out.Pages = append(out.Pages, agents.WebPage{Name: p.Name, URL: p.URL, Snippet: p.Snippet})
		}
	}

	c.logger.Info().Str("query", query).Int("pages", len(out.Pages)).Msg("Found search result")
	return out, nil
}
