package food_research

const (
	ToolName        = "research_food_sensitivity"
	ToolDescription = "Research food sensitivities for a given food name. Returns every FODMAP category the food is sensitive to, with its intolerance level and the citations it is based on."
)

func schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"foodName": map[string]any{
				"type":        "string",
				"description": "The name of the food being researched, e.g. 'chocolate'",
				"minLength":   1,
			},
		},
		"required":             []string{"foodName"},
		"additionalProperties": false,
	}
}
