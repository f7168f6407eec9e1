package shared

import (
	"context"
	"encoding/json"
	"time"
)

// Role defines the role of a message in a conversation
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message represents a chat message for LLM providers
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content,omitempty"`
	// Set on assistant messages that request tool calls.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	// Set on tool messages answering a call.
	ToolInvocation *ToolInvocation `json:"tool_invocation,omitempty"`
}

// ToolDef defines a tool/function that can be called by the LLM
type ToolDef struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	JSONSchema  json.RawMessage `json:"json_schema,omitempty"`
}

// ToolCall represents a tool call made by the LLM
type ToolCall struct {
	Name string `json:"name"`
	ID   string `json:"id,omitempty"`
	// Raw JSON arguments as produced by the model.
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// ToolInvocation represents the result of a tool call
type ToolInvocation struct {
	CallID  string `json:"call_id"`
	Name    string `json:"name"`
	RawText string `json:"raw_text,omitempty"`
}

// ResponseFormat defines the format of the response
type ResponseFormat int

const (
	ResponseFormatText       ResponseFormat = iota
	ResponseFormatJSON                      // strict JSON mode if provider supports it
	ResponseFormatJSONSchema                // output constrained by CompletionOptions.Schema
)

// ResponseSchema names a JSON Schema document used to constrain structured output
type ResponseSchema struct {
	Name   string
	Schema json.RawMessage
	Strict bool
}

// CompletionOptions defines parameters for LLM completion requests
type CompletionOptions struct {
	Model            string
	MaxTokens        int
	Temperature      float32
	TopP             float32
	PresencePenalty  float32
	FrequencyPenalty float32
	Stop             []string
	ResponseFormat   ResponseFormat
	Schema           *ResponseSchema
	Tools            []ToolDef
}

// CompletionRequest represents a request to complete
type CompletionRequest struct {
	Messages []Message
	Options  CompletionOptions
	// Optional system prompt when a provider needs top-level system.
	System string
}

// TokenUsage tracks token consumption for billing and monitoring
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// CompletionResponse represents the response from an LLM completion
type CompletionResponse struct {
	Content    string
	Messages   []Message // full assistant message + tool blocks, if any
	Usage      TokenUsage
	StopReason string   // normalized stop reason (e.g., "stop", "length", "tool_calls")
	Citations  []string // only filled by providers that return grounded answers
	Duration   time.Duration
}

// ToolCalls returns the tool calls of the assistant message, if any
func (r *CompletionResponse) ToolCalls() []ToolCall {
	var calls []ToolCall
	for _, m := range r.Messages {
		calls = append(calls, m.ToolCalls...)
	}
	return calls
}

// ErrorCode defines normalized error codes across providers
type ErrorCode string

const (
	ErrRateLimited        ErrorCode = "rate_limited"
	ErrTimeout            ErrorCode = "timeout"
	ErrAuth               ErrorCode = "auth"
	ErrInvalidRequest     ErrorCode = "invalid_request"
	ErrInvalidResponse    ErrorCode = "invalid_response"
	ErrModelNotFound      ErrorCode = "model_not_found"
	ErrContextLength      ErrorCode = "context_length_exceeded"
	ErrUnavailable        ErrorCode = "service_unavailable"
	ErrUnknown            ErrorCode = "unknown"
	ErrUnsupportedFeature ErrorCode = "unsupported_feature"
)

// ProviderError represents a normalized error from any provider
type ProviderError struct {
	Code    ErrorCode
	Message string
	// Optional: original HTTP status
	HTTPStatus int
	Err        error
}

func (e *ProviderError) Error() string { return e.Message }

func (e *ProviderError) Unwrap() error { return e.Err }

// LLMProvider defines the unified interface for LLM providers
type LLMProvider interface {
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)
	Name() string
}

// ProviderType defines the type of LLM provider
type ProviderType string

const (
	ProviderOpenAI     ProviderType = "openai"
	ProviderPerplexity ProviderType = "perplexity"
)

// ClientOptions defines HTTP client configuration
type ClientOptions struct {
	BaseURL      string
	APIKey       string
	OrgID        string
	Headers      map[string]string
	Timeout      time.Duration
	MaxIdleConns int
	IdleConnTTL  time.Duration
}
