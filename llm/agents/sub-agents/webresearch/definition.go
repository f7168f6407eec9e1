package webresearch

import "fmt"

const (
	AgentName        = "webresearch"
	AgentDescription = "Search the web, answer the query from each top page and summarize the answers"

	// DefaultTopN is the number of ranked pages read when no count is given
	DefaultTopN = 3
)

func pagePrompt(content, query string) string {
	return fmt.Sprintf(`Given the following content:
%s

What is the answer to the question: %s?
Provide your response as a brief summary related to the question.`, content, query)
}

func summarizePrompt(joined string) string {
	return fmt.Sprintf("Given the following web responses:\n%s\n\nSummarize the responses in a short summary.", joined)
}
