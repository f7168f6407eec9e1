// Package perplexity implements the summarizing search gateway on top of the
// Perplexity chat-completions API, which returns grounded answers plus a
// top-level "citations" array.
package perplexity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"fodmap-research/llm/agents"
	"fodmap-research/llm/providers/shared"
	"fodmap-research/llm/providers/transport"
)

const (
	DefaultBaseURL = "https://api.perplexity.ai"
	DefaultModel   = "sonar"

	noResponse = "No response found."
)

var (
	// ErrMissingRawResponse is returned when the vendor envelope is absent or not JSON
	ErrMissingRawResponse = errors.New("perplexity: no raw response found")
	// ErrMissingCitations is returned when the envelope carries no citations field
	ErrMissingCitations = errors.New("perplexity: response has no citations field")
)

// Config holds Perplexity provider configuration
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Provider talks to the Perplexity API. It is both an LLMProvider and a
// summarizing searcher.
type Provider struct {
	http   *transport.HTTPClient
	model  string
	logger zerolog.Logger
}

var _ shared.LLMProvider = (*Provider)(nil)
var _ agents.SummarizingSearcher = (*Provider)(nil)

// envelope is the Perplexity response: the OpenAI-compatible body plus citations
type envelope struct {
	openai.ChatCompletionResponse
	Citations *[]json.RawMessage `json:"citations"`
}

// NewProvider creates a new Perplexity provider
func NewProvider(cfg Config, logger zerolog.Logger) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, &shared.ProviderError{
			Code:    shared.ErrAuth,
			Message: "perplexity api key is required",
		}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	return &Provider{
		http: transport.NewHTTPClient(shared.ClientOptions{
			BaseURL: strings.TrimRight(cfg.BaseURL, "/"),
			APIKey:  cfg.APIKey,
			Timeout: cfg.Timeout,
		}),
		model:  cfg.Model,
		logger: logger.With().Str("component", "perplexity").Logger(),
	}, nil
}

// Name returns the provider name
func (p *Provider) Name() string { return string(shared.ProviderPerplexity) }

// Search answers query with a summary and the citations the answer is grounded on
func (p *Provider) Search(ctx context.Context, query string) (agents.SearchResult, error) {
	p.logger.Info().Str("query", query).Msg("Searching")

	resp, err := p.Complete(ctx, &shared.CompletionRequest{
		Messages: []shared.Message{{Role: shared.RoleUser, Content: query}},
		Options:  shared.CompletionOptions{Model: p.model},
	})
	if err != nil {
		return agents.SearchResult{}, err
	}

	p.logger.Info().
		Str("query", query).
		Int("citations", len(resp.Citations)).
		Msg("Found search result")

	return agents.SearchResult{
		Summary:   resp.Content,
		Citations: resp.Citations,
	}, nil
}

// Complete performs a chat completion and returns the answer with its citations
func (p *Provider) Complete(ctx context.Context, req *shared.CompletionRequest) (*shared.CompletionResponse, error) {
	if err := shared.ValidateCompletionRequest(req); err != nil {
		return nil, err
	}
	if req.Options.ResponseFormat != shared.ResponseFormatText || len(req.Options.Tools) > 0 {
		return nil, &shared.ProviderError{
			Code:    shared.ErrUnsupportedFeature,
			Message: "perplexity provider supports plain text completions only",
		}
	}

	body := openai.ChatCompletionRequest{
		Model:       req.Options.Model,
		Temperature: req.Options.Temperature,
		MaxTokens:   req.Options.MaxTokens,
	}
	if req.System != "" {
		body.Messages = append(body.Messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	for _, m := range req.Messages {
		body.Messages = append(body.Messages, openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	start := time.Now()
	httpResp, err := p.http.Post(ctx, p.http.BaseURL()+"/chat/completions", body)
	if err != nil {
		return nil, err
	}
	raw, err := transport.ReadBody(httpResp, 0)
	if err != nil {
		return nil, err
	}

	out, err := p.parseEnvelope(raw)
	if err != nil {
		return nil, err
	}
	out.Duration = time.Since(start)
	return out, nil
}

func (p *Provider) parseEnvelope(raw []byte) (*shared.CompletionResponse, error) {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, ErrMissingRawResponse
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingRawResponse, err)
	}
	if env.Citations == nil {
		return nil, ErrMissingCitations
	}

	citations := make([]string, 0, len(*env.Citations))
	for _, entry := range *env.Citations {
		var s string
		if err := json.Unmarshal(entry, &s); err != nil || s == "" {
			p.logger.Warn().RawJSON("citation", entry).Msg("Skipping non-string citation")
			continue
		}
		parsed, err := agents.ParseCitation(s)
		if err != nil {
			p.logger.Warn().Err(err).Msg("Skipping malformed citation")
			continue
		}
		citations = append(citations, parsed)
	}

	content := noResponse
	stopReason := ""
	if len(env.Choices) > 0 {
		if env.Choices[0].Message.Content != "" {
			content = env.Choices[0].Message.Content
		}
		stopReason = string(env.Choices[0].FinishReason)
	}

	return &shared.CompletionResponse{
		Content: content,
		Messages: []shared.Message{
			{Role: shared.RoleAssistant, Content: content},
		},
		Usage: shared.TokenUsage{
			PromptTokens:     env.Usage.PromptTokens,
			CompletionTokens: env.Usage.CompletionTokens,
			TotalTokens:      env.Usage.TotalTokens,
		},
		StopReason: stopReason,
		Citations:  citations,
	}, nil
}
