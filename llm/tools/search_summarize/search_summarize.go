// Package search_summarize exposes the search-and-summarize agent as a tool.
package search_summarize

import (
	"context"
	"encoding/json"
	"fmt"

	"fodmap-research/llm/agents"
	"fodmap-research/llm/tools"
)

// Summarizer answers a query with a cited summary
type Summarizer interface {
	SearchAndSummarize(ctx context.Context, query string) (agents.SearchResult, error)
}

// SearchSummarizeTool runs a summarizing search for the model
type SearchSummarizeTool struct {
	summarizer Summarizer
}

var _ tools.Tool = (*SearchSummarizeTool)(nil)

// NewSearchSummarizeTool creates the tool
func NewSearchSummarizeTool(summarizer Summarizer) *SearchSummarizeTool {
	return &SearchSummarizeTool{summarizer: summarizer}
}

// Name returns the tool name
func (t *SearchSummarizeTool) Name() string { return ToolName }

// Description returns the tool description
func (t *SearchSummarizeTool) Description() string { return ToolDescription }

// Schema returns the JSON schema for input validation
func (t *SearchSummarizeTool) Schema() map[string]any { return schema() }

// Execute searches for the query in args
func (t *SearchSummarizeTool) Execute(ctx context.Context, args json.RawMessage) (*tools.ToolResult, error) {
	var in struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return &tools.ToolResult{
			Success: false,
			Error:   "query field is required and must be a string",
		}, nil
	}

	result, err := t.summarizer.SearchAndSummarize(ctx, in.Query)
	if err != nil {
		return &tools.ToolResult{
			Success: false,
			Error:   fmt.Sprintf("search failed: %v", err),
		}, nil
	}

	return &tools.ToolResult{
		Success: true,
		Data:    result,
	}, nil
}
