package search

const (
	AgentName        = "search"
	AgentDescription = "Search the web for a query and return a cited summary"
)
