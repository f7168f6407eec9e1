package search_summarize

const (
	ToolName        = "search_and_summarize"
	ToolDescription = "Search the web for a query and return a short summary together with the citations of the sources used."
)

func schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "The query to search for",
				"minLength":   1,
			},
		},
		"required":             []string{"query"},
		"additionalProperties": false,
	}
}
