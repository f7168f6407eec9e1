package shared

import (
	"errors"
	"fmt"
	"net/http"
)

// NormalizeError normalizes different error types to ProviderError
func NormalizeError(err error) *ProviderError {
	if err == nil {
		return nil
	}

	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe
	}

	return &ProviderError{
		Code:    ErrUnknown,
		Message: err.Error(),
		Err:     err,
	}
}

// ErrorFromStatus maps an HTTP status code to a ProviderError
func ErrorFromStatus(status int, body string) *ProviderError {
	code := ErrUnknown
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		code = ErrAuth
	case status == http.StatusTooManyRequests:
		code = ErrRateLimited
	case status == http.StatusNotFound:
		code = ErrModelNotFound
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		code = ErrTimeout
	case status >= 500:
		code = ErrUnavailable
	case status >= 400:
		code = ErrInvalidRequest
	}
	msg := fmt.Sprintf("provider returned status %d", status)
	if body != "" {
		msg += ": " + body
	}
	return &ProviderError{Code: code, Message: msg, HTTPStatus: status}
}

// ValidateCompletionRequest validates a completion request
func ValidateCompletionRequest(req *CompletionRequest) error {
	if req == nil {
		return &ProviderError{
			Code:    ErrInvalidRequest,
			Message: "request cannot be nil",
		}
	}

	if len(req.Messages) == 0 {
		return &ProviderError{
			Code:    ErrInvalidRequest,
			Message: "messages cannot be empty",
		}
	}

	for i, msg := range req.Messages {
		if msg.Role == "" {
			return &ProviderError{
				Code:    ErrInvalidRequest,
				Message: fmt.Sprintf("message %d: role cannot be empty", i),
			}
		}
		if msg.Role != RoleSystem && msg.Role != RoleUser && msg.Role != RoleAssistant && msg.Role != RoleTool {
			return &ProviderError{
				Code:    ErrInvalidRequest,
				Message: fmt.Sprintf("message %d: invalid role '%s'", i, msg.Role),
			}
		}
		if msg.Role == RoleTool && msg.ToolInvocation == nil {
			return &ProviderError{
				Code:    ErrInvalidRequest,
				Message: fmt.Sprintf("message %d: tool message without invocation", i),
			}
		}
	}

	if req.Options.Model == "" {
		return &ProviderError{
			Code:    ErrInvalidRequest,
			Message: "model cannot be empty",
		}
	}

	if req.Options.ResponseFormat == ResponseFormatJSONSchema {
		if req.Options.Schema == nil || len(req.Options.Schema.Schema) == 0 {
			return &ProviderError{
				Code:    ErrInvalidRequest,
				Message: "json schema response format requires a schema",
			}
		}
	}

	return nil
}
