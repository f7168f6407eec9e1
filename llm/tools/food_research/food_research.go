// Package food_research exposes the food sensitivity classifier as a tool.
package food_research

import (
	"context"
	"encoding/json"
	"fmt"

	"fodmap-research/llm/agents/main-agents/fodmap"
	"fodmap-research/llm/tools"
)

// Researcher classifies a food
type Researcher interface {
	ResearchFoodSensitivity(ctx context.Context, foodName string) (fodmap.FoodSensitivity, error)
}

// FoodResearchTool runs the classifier for the model
type FoodResearchTool struct {
	researcher Researcher
}

var _ tools.Tool = (*FoodResearchTool)(nil)

// NewFoodResearchTool creates the tool
func NewFoodResearchTool(researcher Researcher) *FoodResearchTool {
	return &FoodResearchTool{researcher: researcher}
}

// Name returns the tool name
func (t *FoodResearchTool) Name() string { return ToolName }

// Description returns the tool description
func (t *FoodResearchTool) Description() string { return ToolDescription }

// Schema returns the JSON schema for input validation
func (t *FoodResearchTool) Schema() map[string]any { return schema() }

// Execute researches the food named in args
func (t *FoodResearchTool) Execute(ctx context.Context, args json.RawMessage) (*tools.ToolResult, error) {
	var in struct {
		FoodName string `json:"foodName"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return &tools.ToolResult{
			Success: false,
			Error:   "foodName field is required and must be a string",
		}, nil
	}

	result, err := t.researcher.ResearchFoodSensitivity(ctx, in.FoodName)
	if err != nil {
		return &tools.ToolResult{
			Success: false,
			Error:   fmt.Sprintf("research failed: %v", err),
		}, nil
	}

	return &tools.ToolResult{
		Success: true,
		Data:    result,
	}, nil
}
