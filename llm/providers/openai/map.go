package openai

import (
	"encoding/json"
	"errors"
	"net/http"

	"fodmap-research/llm/providers/shared"

	"github.com/sashabaranov/go-openai"
)

// ToOpenAIRequest converts a shared CompletionRequest to OpenAI format
func ToOpenAIRequest(req *shared.CompletionRequest) (*openai.ChatCompletionRequest, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)

	if req.System != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}

	for _, m := range req.Messages {
		msg := openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		}

		if len(m.ToolCalls) > 0 {
			toolCalls := make([]openai.ToolCall, len(m.ToolCalls))
			for i, tc := range m.ToolCalls {
				args := string(tc.Arguments)
				if args == "" {
					args = "{}"
				}
				toolCalls[i] = openai.ToolCall{
					ID:   tc.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      tc.Name,
						Arguments: args,
					},
				}
			}
			msg.ToolCalls = toolCalls
		}

		if m.ToolInvocation != nil {
			msg.Role = openai.ChatMessageRoleTool
			msg.Content = m.ToolInvocation.RawText
			msg.ToolCallID = m.ToolInvocation.CallID
		}

		msgs = append(msgs, msg)
	}

	o := req.Options
	openaiReq := openai.ChatCompletionRequest{
		Model:            o.Model,
		Messages:         msgs,
		MaxTokens:        o.MaxTokens,
		Temperature:      o.Temperature,
		TopP:             o.TopP,
		Stop:             o.Stop,
		PresencePenalty:  o.PresencePenalty,
		FrequencyPenalty: o.FrequencyPenalty,
	}

	switch o.ResponseFormat {
	case shared.ResponseFormatJSON:
		openaiReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	case shared.ResponseFormatJSONSchema:
		if o.Schema == nil || !json.Valid(o.Schema.Schema) {
			return nil, errors.New("json schema response format requires a valid schema document")
		}
		openaiReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   o.Schema.Name,
				Schema: o.Schema.Schema,
				Strict: o.Schema.Strict,
			},
		}
	}

	if len(o.Tools) > 0 {
		tools := make([]openai.Tool, len(o.Tools))
		for i, t := range o.Tools {
			tools[i] = openai.Tool{
				Type: openai.ToolTypeFunction,
				Function: &openai.FunctionDefinition{
					Name:        t.Name,
					Description: t.Description,
					Parameters:  t.JSONSchema,
				},
			}
		}
		openaiReq.Tools = tools
		openaiReq.ToolChoice = "auto"
	}

	return &openaiReq, nil
}

// FromOpenAIResponse converts an OpenAI response to shared format
func FromOpenAIResponse(resp openai.ChatCompletionResponse) *shared.CompletionResponse {
	var content string
	var messages []shared.Message
	var stopReason string

	if len(resp.Choices) > 0 {
		choice := resp.Choices[0]
		content = choice.Message.Content
		stopReason = string(choice.FinishReason)

		msg := shared.Message{
			Role:    shared.RoleAssistant,
			Content: choice.Message.Content,
		}

		if len(choice.Message.ToolCalls) > 0 {
			toolCalls := make([]shared.ToolCall, len(choice.Message.ToolCalls))
			for i, tc := range choice.Message.ToolCalls {
				toolCalls[i] = shared.ToolCall{
					ID:        tc.ID,
					Name:      tc.Function.Name,
					Arguments: json.RawMessage(tc.Function.Arguments),
				}
			}
			msg.ToolCalls = toolCalls
		}

		messages = append(messages, msg)
	}

	return &shared.CompletionResponse{
		Content:  content,
		Messages: messages,
		Usage: shared.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
		StopReason: stopReason,
	}
}

// NormalizeOpenAIError converts OpenAI errors to normalized ProviderError
func NormalizeOpenAIError(err error) *shared.ProviderError {
	if err == nil {
		return nil
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		pe := shared.ErrorFromStatus(apiErr.HTTPStatusCode, apiErr.Message)
		if apiErr.HTTPStatusCode == http.StatusBadRequest && apiErr.Code == "context_length_exceeded" {
			pe.Code = shared.ErrContextLength
		}
		pe.Err = err
		return pe
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		pe := shared.ErrorFromStatus(reqErr.HTTPStatusCode, "")
		pe.Message = err.Error()
		pe.Err = err
		return pe
	}

	return shared.NormalizeError(err)
}
