package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"fodmap-research/llm/providers/shared"
)

// Completer is the completion surface the agents depend on
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
	CompleteStructured(ctx context.Context, prompt string, schema *Schema, out any) error
}

// Schema is a JSON Schema document compiled once and reused for every call
type Schema struct {
	name     string
	raw      json.RawMessage
	compiled *gojsonschema.Schema
}

// NewSchema compiles a JSON Schema document
func NewSchema(name string, document []byte) (*Schema, error) {
	if !json.Valid(document) {
		return nil, fmt.Errorf("schema %s: document is not valid JSON", name)
	}
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(document))
	if err != nil {
		return nil, fmt.Errorf("schema %s: %w", name, err)
	}
	return &Schema{name: name, raw: json.RawMessage(document), compiled: compiled}, nil
}

// MustSchema is NewSchema for package-level schemas; it panics on an invalid document
func MustSchema(name string, document []byte) *Schema {
	s, err := NewSchema(name, document)
	if err != nil {
		panic(err)
	}
	return s
}

// Name returns the schema name sent to the provider
func (s *Schema) Name() string { return s.name }

// Raw returns the schema document
func (s *Schema) Raw() json.RawMessage { return s.raw }

// Validate checks a JSON document against the schema
func (s *Schema) Validate(document []byte) error {
	result, err := s.compiled.Validate(gojsonschema.NewBytesLoader(document))
	if err != nil {
		return &shared.ProviderError{
			Code:    shared.ErrInvalidResponse,
			Message: fmt.Sprintf("%s: response is not valid JSON: %v", s.name, err),
			Err:     err,
		}
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return &shared.ProviderError{
			Code:    shared.ErrInvalidResponse,
			Message: fmt.Sprintf("%s: response does not match schema: %s", s.name, strings.Join(errs, "; ")),
		}
	}
	return nil
}

// Gateway is the completion gateway: a single prompt in, text or a
// schema-constrained object out.
type Gateway struct {
	provider    shared.LLMProvider
	model       string
	temperature float32
	maxTokens   int
}

// NewGateway creates a completion gateway for a provider and model
func NewGateway(provider shared.LLMProvider, model string) *Gateway {
	return &Gateway{
		provider:    provider,
		model:       model,
		temperature: 0.2,
	}
}

// WithMaxTokens caps completion length
func (g *Gateway) WithMaxTokens(n int) *Gateway {
	g.maxTokens = n
	return g
}

// Provider returns the underlying provider
func (g *Gateway) Provider() shared.LLMProvider { return g.provider }

// Model returns the model used for completions
func (g *Gateway) Model() string { return g.model }

func (g *Gateway) request(prompt string) *shared.CompletionRequest {
	return &shared.CompletionRequest{
		Messages: []shared.Message{
			{Role: shared.RoleUser, Content: prompt},
		},
		Options: shared.CompletionOptions{
			Model:       g.model,
			Temperature: g.temperature,
			MaxTokens:   g.maxTokens,
		},
	}
}

// Complete returns the free-text answer to prompt
func (g *Gateway) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := g.provider.Complete(ctx, g.request(prompt))
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// CompleteStructured asks for an object matching schema and decodes it into out
func (g *Gateway) CompleteStructured(ctx context.Context, prompt string, schema *Schema, out any) error {
	req := g.request(prompt)
	req.Options.ResponseFormat = shared.ResponseFormatJSONSchema
	req.Options.Schema = &shared.ResponseSchema{
		Name:   schema.Name(),
		Schema: schema.Raw(),
		Strict: true,
	}

	resp, err := g.provider.Complete(ctx, req)
	if err != nil {
		return err
	}

	document := []byte(stripCodeFence(resp.Content))
	if err := schema.Validate(document); err != nil {
		return err
	}
	if err := json.Unmarshal(document, out); err != nil {
		return &shared.ProviderError{
			Code:    shared.ErrInvalidResponse,
			Message: fmt.Sprintf("%s: failed to decode response: %v", schema.Name(), err),
			Err:     err,
		}
	}
	return nil
}

// stripCodeFence removes a markdown code fence some models wrap JSON in
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
