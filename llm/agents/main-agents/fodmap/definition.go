package fodmap

import (
	"encoding/json"
	"fmt"

	"fodmap-research/llm/providers"
)

const (
	AgentName        = "fodmap"
	AgentDescription = "Research the FODMAP sensitivities of a food, one category at a time"
)

// SensitivityLevelSchema constrains the classification completion
var SensitivityLevelSchema = providers.MustSchema("sensitivity_level", sensitivityLevelDocument())

func sensitivityLevelDocument() []byte {
	doc := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"sensitivity": map[string]any{
				"type": "string",
				"enum": categoryNames[:],
			},
			"intoleranceLevel": map[string]any{
				"type": "string",
				"enum": levelNames[:],
			},
			"citations": map[string]any{
				"type": "array",
				// Plain strings: citations are filtered one by one after decoding.
				"items": map[string]any{
					"type": "string",
				},
			},
		},
		"required":             []string{"sensitivity", "intoleranceLevel", "citations"},
		"additionalProperties": false,
	}
	out, err := json.Marshal(doc)
	if err != nil {
		panic(err)
	}
	return out
}

func searchQuery(category SensitivityCategory, food string) string {
	return fmt.Sprintf("What is the intolerance level for %s in %s?", category, food)
}

func classificationPrompt(summary, food string, category SensitivityCategory) string {
	return fmt.Sprintf("Based on the following: %s,\nWhat are the details for %s's classifcation: %s?", summary, food, category)
}
