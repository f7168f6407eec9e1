package openai

import (
	"context"
	"fmt"
	"time"

	"fodmap-research/llm/providers/shared"
	"fodmap-research/llm/providers/transport"

	"github.com/sashabaranov/go-openai"
)

// Config holds OpenAI provider configuration
type Config struct {
	APIKey  string
	BaseURL string
	OrgID   string
	Timeout time.Duration
}

// Provider implements the unified LLMProvider interface for OpenAI
type Provider struct {
	client *openai.Client
	config Config
}

// NewProvider creates a new OpenAI provider
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, &shared.ProviderError{
			Code:    shared.ErrAuth,
			Message: "openai api key is required",
		}
	}

	openaiConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		openaiConfig.BaseURL = cfg.BaseURL
	}
	if cfg.OrgID != "" {
		openaiConfig.OrgID = cfg.OrgID
	}

	// Auth headers are added by the SDK itself.
	httpClient := transport.NewHTTPClient(shared.ClientOptions{
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
	})
	openaiConfig.HTTPClient = httpClient.StandardClient()

	return &Provider{
		client: openai.NewClientWithConfig(openaiConfig),
		config: cfg,
	}, nil
}

// Name returns the provider name
func (p *Provider) Name() string { return string(shared.ProviderOpenAI) }

// Complete performs a completion request
func (p *Provider) Complete(ctx context.Context, req *shared.CompletionRequest) (*shared.CompletionResponse, error) {
	if err := shared.ValidateCompletionRequest(req); err != nil {
		return nil, err
	}

	openaiReq, err := ToOpenAIRequest(req)
	if err != nil {
		return nil, fmt.Errorf("failed to convert request: %w", err)
	}

	start := time.Now()
	resp, err := p.client.CreateChatCompletion(ctx, *openaiReq)
	if err != nil {
		return nil, NormalizeOpenAIError(err)
	}

	out := FromOpenAIResponse(resp)
	out.Duration = time.Since(start)
	return out, nil
}
