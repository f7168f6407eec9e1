package food_research

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fodmap-research/llm/agents/main-agents/fodmap"
	"fodmap-research/llm/providers/shared"
	"fodmap-research/llm/tools"
)

type stubResearcher struct {
	foods []string
	err   error
}

func (s *stubResearcher) ResearchFoodSensitivity(_ context.Context, food string) (fodmap.FoodSensitivity, error) {
	s.foods = append(s.foods, food)
	if s.err != nil {
		return fodmap.FoodSensitivity{}, s.err
	}
	return fodmap.FoodSensitivity{
		FoodName: food,
		SensitivityLevels: []fodmap.SensitivityLevel{
			{Sensitivity: fodmap.CategoryFructans, IntoleranceLevel: fodmap.IntoleranceLow, Citations: []string{"https://a.example"}},
		},
		Citations: []string{"https://a.example"},
	}, nil
}

func TestFoodResearchToolThroughRegistry(t *testing.T) {
	stub := &stubResearcher{}
	r := tools.NewRegistry()
	require.NoError(t, r.Register(NewFoodResearchTool(stub)))

	result, err := r.Execute(context.Background(), shared.ToolCall{
		Name:      ToolName,
		ID:        "call_1",
		Arguments: json.RawMessage(`{"foodName":"chocolate"}`),
	})
	require.NoError(t, err)
	require.True(t, result.Success)

	assert.Equal(t, []string{"chocolate"}, stub.foods)
	assert.JSONEq(t, `{
		"foodName": "chocolate",
		"sensitivityLevels": [{"sensitivity": "Fructans", "intoleranceLevel": "Low", "citations": ["https://a.example"]}],
		"citations": ["https://a.example"]
	}`, result.Content())
}

func TestFoodResearchToolRejectsMissingFood(t *testing.T) {
	stub := &stubResearcher{}
	r := tools.NewRegistry()
	require.NoError(t, r.Register(NewFoodResearchTool(stub)))

	_, err := r.Execute(context.Background(), shared.ToolCall{Name: ToolName, Arguments: json.RawMessage(`{"food":"chocolate"}`)})
	assert.ErrorIs(t, err, tools.ErrInvalidArguments)
	assert.Empty(t, stub.foods)
}

func TestFoodResearchToolReportsFailure(t *testing.T) {
	tool := NewFoodResearchTool(&stubResearcher{err: errors.New("food name is required")})

	result, err := tool.Execute(context.Background(), json.RawMessage(`{"foodName":"x"}`))
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "food name is required")
}
