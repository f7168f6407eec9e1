package primary

const (
	AgentName        = "primary"
	AgentDescription = "Answer free-form questions about foods, calling research tools as needed"

	// DefaultQuestion is asked when none is given
	DefaultQuestion = "Is chocolate a FODMAP?"

	// DefaultMaxToolRounds bounds how many times the model may request tools
	DefaultMaxToolRounds = 5
)

const systemPrompt = `You are a helpful assistant that answers questions about food sensitivities and the FODMAP diet.
Use the available tools to research foods before answering. Cite the sources the tools return.`
