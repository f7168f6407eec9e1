// Package primary is the chat agent that answers a question, letting the
// model call the registered tools until it produces a final answer.
package primary

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"fodmap-research/internal/metrics"
	"fodmap-research/llm/providers/shared"
	"fodmap-research/llm/tools"
)

// ErrTooManyToolRounds is returned when the model keeps asking for tools
var ErrTooManyToolRounds = errors.New("model did not answer within the tool round limit")

// PrimaryAgent is the main orchestrator agent
type PrimaryAgent struct {
	provider      shared.LLMProvider
	model         string
	tools         *tools.Registry
	maxToolRounds int
	metrics       *metrics.Metrics
	logger        zerolog.Logger
}

// Option configures a PrimaryAgent
type Option func(*PrimaryAgent)

// WithMaxToolRounds overrides DefaultMaxToolRounds
func WithMaxToolRounds(n int) Option {
	return func(p *PrimaryAgent) {
		if n > 0 {
			p.maxToolRounds = n
		}
	}
}

// WithMetrics records tool calls on m
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *PrimaryAgent) {
		if m != nil {
			p.metrics = m
		}
	}
}

// NewPrimaryAgent creates a new primary agent
func NewPrimaryAgent(provider shared.LLMProvider, model string, registry *tools.Registry, logger zerolog.Logger, opts ...Option) *PrimaryAgent {
	p := &PrimaryAgent{
		provider:      provider,
		model:         model,
		tools:         registry,
		maxToolRounds: DefaultMaxToolRounds,
		metrics:       metrics.New(),
		logger:        logger.With().Str("agent", AgentName).Logger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the agent name
func (p *PrimaryAgent) Name() string { return AgentName }

// Ask answers question, running any tools the model calls along the way
func (p *PrimaryAgent) Ask(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		question = DefaultQuestion
	}
	p.logger.Info().Str("question", question).Msg("Answering question")

	messages := []shared.Message{
		{Role: shared.RoleUser, Content: question},
	}
	definitions := p.tools.Definitions()

	for round := 0; ; round++ {
		resp, err := p.provider.Complete(ctx, &shared.CompletionRequest{
			System:   systemPrompt,
			Messages: messages,
			Options: shared.CompletionOptions{
				Model:       p.model,
				Temperature: 0.2,
				Tools:       definitions,
			},
		})
		if err != nil {
			return "", fmt.Errorf("completion failed: %w", err)
		}

		calls := resp.ToolCalls()
		if len(calls) == 0 {
			p.logger.Info().Int("tool_rounds", round).Msg("Answered question")
			return resp.Content, nil
		}
		if round >= p.maxToolRounds {
			return "", fmt.Errorf("%w (%d)", ErrTooManyToolRounds, p.maxToolRounds)
		}

		messages = append(messages, shared.Message{
			Role:      shared.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: calls,
		})
		for _, call := range calls {
			messages = append(messages, shared.Message{
				Role: shared.RoleTool,
				ToolInvocation: &shared.ToolInvocation{
					CallID:  call.ID,
					Name:    call.Name,
					RawText: p.runTool(ctx, call),
				},
			})
		}
	}
}

// runTool executes one call and renders the outcome for the model. Failures
// are reported back as an error payload so the model can recover.
func (p *PrimaryAgent) runTool(ctx context.Context, call shared.ToolCall) string {
	logger := p.logger.With().Str("tool", call.Name).Str("call_id", call.ID).Logger()
	logger.Debug().Str("arguments", string(call.Arguments)).Msg("Calling tool")

	result, err := p.tools.Execute(ctx, call)
	if err != nil {
		p.metrics.ToolCalls.WithLabelValues(call.Name, "error").Inc()
		logger.Warn().Err(err).Msg("Tool call failed")
		result = &tools.ToolResult{Success: false, Error: err.Error()}
	} else if !result.Success {
		p.metrics.ToolCalls.WithLabelValues(call.Name, "error").Inc()
		logger.Warn().Str("error", result.Error).Msg("Tool reported failure")
	} else {
		p.metrics.ToolCalls.WithLabelValues(call.Name, "ok").Inc()
		logger.Debug().Dur("duration", result.Stats.ExecutionTime).Msg("Tool call finished")
	}
	return result.Content()
}

