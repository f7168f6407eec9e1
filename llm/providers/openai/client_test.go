package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fodmap-research/llm/agents/main-agents/fodmap"
	"fodmap-research/llm/providers/shared"
)

func TestToOpenAIRequestJSONSchema(t *testing.T) {
	schema := json.RawMessage(`{"type":"object","properties":{"sensitivity":{"type":"string"}}}`)
	req := &shared.CompletionRequest{
		System:   "You classify foods.",
		Messages: []shared.Message{{Role: shared.RoleUser, Content: "classify garlic"}},
		Options: shared.CompletionOptions{
			Model:          "gpt-4o-mini",
			ResponseFormat: shared.ResponseFormatJSONSchema,
			Schema:         &shared.ResponseSchema{Name: "sensitivity_level", Schema: schema, Strict: true},
		},
	}

	out, err := ToOpenAIRequest(req)
	require.NoError(t, err)

	require.Len(t, out.Messages, 2)
	assert.Equal(t, "system", out.Messages[0].Role)
	assert.Equal(t, "classify garlic", out.Messages[1].Content)

	require.NotNil(t, out.ResponseFormat)
	require.NotNil(t, out.ResponseFormat.JSONSchema)
	assert.Equal(t, "sensitivity_level", out.ResponseFormat.JSONSchema.Name)
	assert.True(t, out.ResponseFormat.JSONSchema.Strict)

	encoded, err := json.Marshal(out.ResponseFormat)
	require.NoError(t, err)
	assert.Contains(t, string(encoded), `"type":"json_schema"`)
	assert.Contains(t, string(encoded), `"sensitivity"`)
}

func TestToOpenAIRequestRejectsInvalidSchema(t *testing.T) {
	req := &shared.CompletionRequest{
		Messages: []shared.Message{{Role: shared.RoleUser, Content: "x"}},
		Options: shared.CompletionOptions{
			Model:          "gpt-4o-mini",
			ResponseFormat: shared.ResponseFormatJSONSchema,
			Schema:         &shared.ResponseSchema{Name: "broken", Schema: json.RawMessage(`{"type":`)},
		},
	}

	_, err := ToOpenAIRequest(req)
	assert.Error(t, err)
}

func TestToOpenAIRequestToolRoundTrip(t *testing.T) {
	req := &shared.CompletionRequest{
		Messages: []shared.Message{
			{Role: shared.RoleUser, Content: "Is chocolate a FODMAP?"},
			{
				Role: shared.RoleAssistant,
				ToolCalls: []shared.ToolCall{
					{ID: "call_1", Name: "research_food_sensitivity", Arguments: json.RawMessage(`{"foodName":"chocolate"}`)},
				},
			},
			{
				Role:           shared.RoleTool,
				ToolInvocation: &shared.ToolInvocation{CallID: "call_1", Name: "research_food_sensitivity", RawText: `{"foodName":"chocolate"}`},
			},
		},
		Options: shared.CompletionOptions{
			Model: "gpt-4o-mini",
			Tools: []shared.ToolDef{{Name: "research_food_sensitivity", JSONSchema: json.RawMessage(`{"type":"object"}`)}},
		},
	}

	out, err := ToOpenAIRequest(req)
	require.NoError(t, err)

	require.Len(t, out.Messages, 3)
	require.Len(t, out.Messages[1].ToolCalls, 1)
	assert.Equal(t, `{"foodName":"chocolate"}`, out.Messages[1].ToolCalls[0].Function.Arguments)
	assert.Equal(t, "tool", out.Messages[2].Role)
	assert.Equal(t, "call_1", out.Messages[2].ToolCallID)

	require.Len(t, out.Tools, 1)
	assert.Equal(t, "research_food_sensitivity", out.Tools[0].Function.Name)
	assert.Equal(t, "auto", out.ToolChoice)
}

func TestProviderComplete(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &captured)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "gpt-4o-mini",
			"choices": [{
				"index": 0,
				"finish_reason": "tool_calls",
				"message": {
					"role": "assistant",
					"content": "",
					"tool_calls": [{
						"id": "call_1",
						"type": "function",
						"function": {"name": "search_and_summarize", "arguments": "{\"query\":\"garlic fructans\"}"}
					}]
				}
			}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 8, "total_tokens": 20}
		}`)
	}))
	defer srv.Close()

	p, err := NewProvider(Config{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())

	resp, err := p.Complete(context.Background(), &shared.CompletionRequest{
		Messages: []shared.Message{{Role: shared.RoleUser, Content: "garlic?"}},
		Options:  shared.CompletionOptions{Model: "gpt-4o-mini"},
	})
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", captured["model"])
	assert.Equal(t, "tool_calls", resp.StopReason)
	assert.Equal(t, 20, resp.Usage.TotalTokens)

	calls := resp.ToolCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "search_and_summarize", calls[0].Name)
	assert.JSONEq(t, `{"query":"garlic fructans"}`, string(calls[0].Arguments))
}

func TestProviderCompleteSendsStrictClassificationSchema(t *testing.T) {
	var captured struct {
		ResponseFormat struct {
			Type       string `json:"type"`
			JSONSchema struct {
				Name   string         `json:"name"`
				Strict bool           `json:"strict"`
				Schema map[string]any `json:"schema"`
			} `json:"json_schema"`
		} `json:"response_format"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "{}"}}]}`)
	}))
	defer srv.Close()

	p, err := NewProvider(Config{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)

	schema := fodmap.SensitivityLevelSchema
	_, err = p.Complete(context.Background(), &shared.CompletionRequest{
		Messages: []shared.Message{{Role: shared.RoleUser, Content: "classify garlic"}},
		Options: shared.CompletionOptions{
			Model:          "gpt-4o-mini",
			ResponseFormat: shared.ResponseFormatJSONSchema,
			Schema:         &shared.ResponseSchema{Name: schema.Name(), Schema: schema.Raw(), Strict: true},
		},
	})
	require.NoError(t, err)

	sent := captured.ResponseFormat
	assert.Equal(t, "json_schema", sent.Type)
	assert.Equal(t, "sensitivity_level", sent.JSONSchema.Name)
	assert.True(t, sent.JSONSchema.Strict)
	assert.Equal(t, false, sent.JSONSchema.Schema["additionalProperties"])
	assert.ElementsMatch(t, []any{"sensitivity", "intoleranceLevel", "citations"}, sent.JSONSchema.Schema["required"])
	assert.Empty(t, formatKeywords(sent.JSONSchema.Schema), "strict mode rejects most format keywords")
}

// formatKeywords collects every "format" value anywhere in a schema document
func formatKeywords(node any) []any {
	var found []any
	switch v := node.(type) {
	case map[string]any:
		for key, child := range v {
			if key == "format" {
				found = append(found, child)
				continue
			}
			found = append(found, formatKeywords(child)...)
		}
	case []any:
		for _, child := range v {
			found = append(found, formatKeywords(child)...)
		}
	}
	return found
}

func TestProviderCompleteNormalizesErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error","code":"invalid_api_key"}}`)
	}))
	defer srv.Close()

	p, err := NewProvider(Config{APIKey: "wrong", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = p.Complete(context.Background(), &shared.CompletionRequest{
		Messages: []shared.Message{{Role: shared.RoleUser, Content: "hi"}},
		Options:  shared.CompletionOptions{Model: "gpt-4o-mini"},
	})
	require.Error(t, err)

	var pe *shared.ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, shared.ErrAuth, pe.Code)
	assert.Equal(t, http.StatusUnauthorized, pe.HTTPStatus)
}

func TestNewProviderRequiresKey(t *testing.T) {
	_, err := NewProvider(Config{})
	assert.Error(t, err)
}
