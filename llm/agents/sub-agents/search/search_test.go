package search

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fodmap-research/llm/agents"
)

type stubSearcher struct {
	result  agents.SearchResult
	err     error
	queries []string
}

func (s *stubSearcher) Search(_ context.Context, query string) (agents.SearchResult, error) {
	s.queries = append(s.queries, query)
	return s.result, s.err
}

func TestSearchAndSummarizePassesThrough(t *testing.T) {
	stub := &stubSearcher{result: agents.SearchResult{
		Summary:   "Garlic is high in fructans.",
		Citations: []string{"https://a.example/garlic"},
	}}
	agent := NewSearchAgent(stub, zerolog.Nop())

	got, err := agent.SearchAndSummarize(context.Background(), "garlic fructans")
	require.NoError(t, err)
	assert.Equal(t, stub.result, got)
	assert.Equal(t, []string{"garlic fructans"}, stub.queries)
}

func TestSearchAndSummarizeIsIdempotent(t *testing.T) {
	stub := &stubSearcher{result: agents.SearchResult{Summary: "same", Citations: []string{"https://x.example"}}}
	agent := NewSearchAgent(stub, zerolog.Nop())

	first, err := agent.SearchAndSummarize(context.Background(), "q")
	require.NoError(t, err)
	second, err := agent.SearchAndSummarize(context.Background(), "q")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, stub.queries, 2)
}

func TestSearchAndSummarizePropagatesError(t *testing.T) {
	boom := errors.New("search unavailable")
	agent := NewSearchAgent(&stubSearcher{err: boom}, zerolog.Nop())

	_, err := agent.SearchAndSummarize(context.Background(), "q")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, AgentName, agent.Name())
}
