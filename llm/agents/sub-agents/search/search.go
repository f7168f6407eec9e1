// Package search is the search-and-summarize sub-agent: a logged
// pass-through over a summarizing search gateway.
package search

import (
	"context"

	"github.com/rs/zerolog"

	"fodmap-research/llm/agents"
)

// SearchAgent answers a query with a cited summary
type SearchAgent struct {
	searcher agents.SummarizingSearcher
	logger   zerolog.Logger
}

// NewSearchAgent creates a search-and-summarize agent
func NewSearchAgent(searcher agents.SummarizingSearcher, logger zerolog.Logger) *SearchAgent {
	return &SearchAgent{
		searcher: searcher,
		logger:   logger.With().Str("agent", AgentName).Logger(),
	}
}

// Name returns the agent name
func (a *SearchAgent) Name() string { return AgentName }

// SearchAndSummarize returns the searcher's result for query unmodified
func (a *SearchAgent) SearchAndSummarize(ctx context.Context, query string) (agents.SearchResult, error) {
	a.logger.Info().Str("query", query).Msg("Searching and summarizing")

	result, err := a.searcher.Search(ctx, query)
	if err != nil {
		return agents.SearchResult{}, err
	}

	a.logger.Info().
		Str("query", query).
		Stringer("result", result).
		Msg("Summarized search results")
	return result, nil
}
