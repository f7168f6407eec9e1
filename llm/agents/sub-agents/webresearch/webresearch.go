// Package webresearch answers a query from the top ranked web pages, one page
// at a time, and synthesizes the per-page answers into a single summary.
package webresearch

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"github.com/rs/zerolog"

	"fodmap-research/internal/metrics"
	"fodmap-research/llm/agents"
	"fodmap-research/llm/providers"
)

// Pipeline is the web research agent
type Pipeline struct {
	searcher  agents.RankedSearcher
	fetcher   agents.PageFetcher
	completer providers.Completer
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

// NewPipeline creates a web research pipeline. A nil m gets a private registry.
func NewPipeline(searcher agents.RankedSearcher, fetcher agents.PageFetcher, completer providers.Completer, m *metrics.Metrics, logger zerolog.Logger) *Pipeline {
	if m == nil {
		m = metrics.New()
	}
	return &Pipeline{
		searcher:  searcher,
		fetcher:   fetcher,
		completer: completer,
		metrics:   m,
		logger:    logger.With().Str("agent", AgentName).Logger(),
	}
}

// Name returns the agent name
func (p *Pipeline) Name() string { return AgentName }

// Search returns the ranked pages for query
func (p *Pipeline) Search(ctx context.Context, query string) (agents.SearchResponse, error) {
	p.logger.Info().Str("query", query).Msg("Searching")
	resp, err := p.searcher.Search(ctx, query)
	if err != nil {
		return agents.SearchResponse{}, err
	}
	p.logger.Info().Str("query", query).Int("pages", len(resp.Pages)).Msg("Found search result")
	return resp, nil
}

// GetWebResponses lazily answers the original query from each of the first
// topN pages, in ranked order. Nothing is fetched until the sequence is
// ranged over. The first failure is yielded as an error and ends the sequence.
func (p *Pipeline) GetWebResponses(ctx context.Context, resp agents.SearchResponse, topN int) iter.Seq2[agents.CitedWebResponse, error] {
	if topN <= 0 {
		topN = DefaultTopN
	}
	pages := resp.Pages[:min(topN, len(resp.Pages))]

	return func(yield func(agents.CitedWebResponse, error) bool) {
		p.logger.Info().Str("query", resp.OriginalQuery).Int("pages", len(pages)).Msg("Getting web responses")

		for _, page := range pages {
			answer, err := p.answerPage(ctx, page, resp.OriginalQuery)
			if err != nil {
				yield(agents.CitedWebResponse{}, err)
				return
			}
			if !yield(answer, nil) {
				return
			}
		}
	}
}

func (p *Pipeline) answerPage(ctx context.Context, page agents.WebPage, query string) (agents.CitedWebResponse, error) {
	if err := ctx.Err(); err != nil {
		return agents.CitedWebResponse{}, err
	}

	citation, err := agents.ParseCitation(page.URL)
	if err != nil {
		return agents.CitedWebResponse{}, fmt.Errorf("page %q: %w", page.Name, err)
	}

	content, err := p.fetcher.Fetch(ctx, citation)
	if err != nil {
		return agents.CitedWebResponse{}, fmt.Errorf("failed to fetch %s: %w", citation, err)
	}

	p.logger.Debug().Str("query", query).Str("url", citation).Msg("Requesting web response")
	answer, err := p.completer.Complete(ctx, pagePrompt(content, query))
	if err != nil {
		return agents.CitedWebResponse{}, fmt.Errorf("failed to answer from %s: %w", citation, err)
	}
	p.metrics.PagesProcessed.Inc()
	p.logger.Debug().Str("query", query).Str("url", citation).Str("response", answer).Msg("Found web response")

	return agents.CitedWebResponse{WebResponse: answer, Citation: citation}, nil
}

// CollectWebResponses drains GetWebResponses into a slice
func (p *Pipeline) CollectWebResponses(ctx context.Context, resp agents.SearchResponse, topN int) ([]agents.CitedWebResponse, error) {
	responses := []agents.CitedWebResponse{}
	for answer, err := range p.GetWebResponses(ctx, resp, topN) {
		if err != nil {
			return nil, err
		}
		responses = append(responses, answer)
	}
	return responses, nil
}

// SummarizeWebResponses synthesizes the answers into one summary. The
// responses are returned unchanged alongside it.
func (p *Pipeline) SummarizeWebResponses(ctx context.Context, responses []agents.CitedWebResponse) (agents.CitedWebResponses, error) {
	p.logger.Info().Int("responses", len(responses)).Msg("Summarizing web responses")

	texts := make([]string, len(responses))
	for i, r := range responses {
		texts[i] = r.WebResponse
	}

	summary, err := p.completer.Complete(ctx, summarizePrompt(strings.Join(texts, "\n")))
	if err != nil {
		return agents.CitedWebResponses{}, fmt.Errorf("failed to summarize web responses: %w", err)
	}

	p.logger.Info().Str("summary", summary).Msg("Summarized web responses")
	return agents.CitedWebResponses{Summary: summary, WebResponses: responses}, nil
}

// Research runs the whole pipeline: search, answer from the top pages, summarize
func (p *Pipeline) Research(ctx context.Context, query string, topN int) (agents.CitedWebResponses, error) {
	resp, err := p.Search(ctx, query)
	if err != nil {
		return agents.CitedWebResponses{}, err
	}
	responses, err := p.CollectWebResponses(ctx, resp, topN)
	if err != nil {
		return agents.CitedWebResponses{}, err
	}
	return p.SummarizeWebResponses(ctx, responses)
}
