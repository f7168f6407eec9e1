package tools

import (
	"context"
	"encoding/json"
	"time"

	"fodmap-research/llm/providers/shared"
)

// ToolResult represents the result of tool execution
type ToolResult struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   string    `json:"error,omitempty"`
	Stats   ToolStats `json:"stats"`
}

// ToolStats tracks tool execution statistics
type ToolStats struct {
	ExecutionTime time.Duration `json:"execution_time"`
}

// Tool defines the interface that all tools must implement
type Tool interface {
	Name() string
	Description() string
	// Schema is the JSON schema of the tool arguments
	Schema() map[string]any
	Execute(ctx context.Context, args json.RawMessage) (*ToolResult, error)
}

// Definition returns the function definition sent to the model for a tool
func Definition(tool Tool) (shared.ToolDef, error) {
	schema, err := json.Marshal(tool.Schema())
	if err != nil {
		return shared.ToolDef{}, err
	}
	return shared.ToolDef{
		Name:        tool.Name(),
		Description: tool.Description(),
		JSONSchema:  schema,
	}, nil
}

// Content renders a result as the text handed back to the model
func (r *ToolResult) Content() string {
	var payload any
	if r.Success {
		payload = r.Data
	} else {
		payload = map[string]string{"error": r.Error}
	}
	out, err := json.Marshal(payload)
	if err != nil {
		return `{"error":"failed to encode tool result"}`
	}
	return string(out)
}
