// Package agents holds the value types and gateway contracts shared by the
// research agents.
//
// Layout:
//   - definition.go: search results, cited web responses, gateway interfaces
//   - sub-agents/search: search-and-summarize agent
//   - sub-agents/webresearch: page-by-page web research pipeline
//   - main-agents/fodmap: food sensitivity classifier
//   - main-agents/primary: tool-calling chat agent
package agents

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// SearchResult is the cited summary produced by a summarizing search
type SearchResult struct {
	Summary   string   `json:"summary"`
	Citations []string `json:"citations"`
}

// String renders the summary followed by its citations
func (r SearchResult) String() string {
	return r.Summary + "\n\n" + strings.Join(r.Citations, "\n\n")
}

// WebPage is one ranked result of a web search
type WebPage struct {
	Name    string `json:"name"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// SearchResponse is the ranked answer of a web search
type SearchResponse struct {
	OriginalQuery string    `json:"originalQuery"`
	Pages         []WebPage `json:"pages"`
}

// CitedWebResponse is one page's answer to a question
type CitedWebResponse struct {
	WebResponse string `json:"webResponse"`
	Citation    string `json:"citation"`
}

// CitedWebResponses is a synthesis over several cited page answers
type CitedWebResponses struct {
	Summary      string             `json:"summary"`
	WebResponses []CitedWebResponse `json:"webResponses"`
}

// String renders the summary followed by the citations of every response
func (r CitedWebResponses) String() string {
	citations := make([]string, len(r.WebResponses))
	for i, resp := range r.WebResponses {
		citations[i] = resp.Citation
	}
	return r.Summary + "\n\n" + strings.Join(citations, "\n\n")
}

// SummarizingSearcher answers a query with a cited summary
type SummarizingSearcher interface {
	Search(ctx context.Context, query string) (SearchResult, error)
}

// RankedSearcher answers a query with ranked pages
type RankedSearcher interface {
	Search(ctx context.Context, query string) (SearchResponse, error)
}

// PageFetcher retrieves the text of a page
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// ParseCitation validates an absolute http(s) URI and returns it trimmed but
// otherwise as given, so a citation always matches its source URL
func ParseCitation(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty citation")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid citation %q: %w", raw, err)
	}
	if !u.IsAbs() || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", fmt.Errorf("invalid citation %q: not an absolute http(s) uri", raw)
	}
	return raw, nil
}

// FilterCitations keeps the well-formed citations of raw, in order, and
// reports the rejected ones.
func FilterCitations(raw []string) (kept []string, rejected []string) {
	kept = make([]string, 0, len(raw))
	for _, c := range raw {
		parsed, err := ParseCitation(c)
		if err != nil {
			rejected = append(rejected, c)
			continue
		}
		kept = append(kept, parsed)
	}
	return kept, rejected
}
