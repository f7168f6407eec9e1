package test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"fodmap-research/llm/providers/shared"
)

// Responder computes a response for a request when no canned answer matches
type Responder func(req *shared.CompletionRequest) (*shared.CompletionResponse, error)

// FakeProvider implements LLMProvider for testing purposes
type FakeProvider struct {
	mu          sync.RWMutex
	responses   map[string]*shared.CompletionResponse
	contains    map[string]*shared.CompletionResponse
	delays      map[string]time.Duration
	errors      map[string]error
	responder   Responder
	callCount   int
	requests    []*shared.CompletionRequest
	lastRequest *shared.CompletionRequest
}

// NewFakeProvider creates a new fake provider for testing
func NewFakeProvider() *FakeProvider {
	return &FakeProvider{
		responses: make(map[string]*shared.CompletionResponse),
		contains:  make(map[string]*shared.CompletionResponse),
		delays:    make(map[string]time.Duration),
		errors:    make(map[string]error),
	}
}

// AddResponse adds a canned response for a specific prompt
func (fp *FakeProvider) AddResponse(prompt string, response *shared.CompletionResponse) {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	fp.responses[prompt] = response
}

// AddResponseContaining adds a canned response for any prompt containing fragment
func (fp *FakeProvider) AddResponseContaining(fragment string, response *shared.CompletionResponse) {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	fp.contains[fragment] = response
}

// AddDelay adds a delay for a specific prompt
func (fp *FakeProvider) AddDelay(prompt string, delay time.Duration) {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	fp.delays[prompt] = delay
}

// AddError adds an error for any prompt containing fragment
func (fp *FakeProvider) AddError(fragment string, err error) {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	fp.errors[fragment] = err
}

// SetResponder installs a fallback used when nothing canned matches
func (fp *FakeProvider) SetResponder(r Responder) {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	fp.responder = r
}

// GetCallCount returns the number of calls made to the provider
func (fp *FakeProvider) GetCallCount() int {
	fp.mu.RLock()
	defer fp.mu.RUnlock()
	return fp.callCount
}

// GetLastRequest returns the last request made to the provider
func (fp *FakeProvider) GetLastRequest() *shared.CompletionRequest {
	fp.mu.RLock()
	defer fp.mu.RUnlock()
	return fp.lastRequest
}

// GetRequests returns every request made to the provider, in call order
func (fp *FakeProvider) GetRequests() []*shared.CompletionRequest {
	fp.mu.RLock()
	defer fp.mu.RUnlock()
	out := make([]*shared.CompletionRequest, len(fp.requests))
	copy(out, fp.requests)
	return out
}

// Name returns the provider name
func (fp *FakeProvider) Name() string { return "fake" }

// Complete performs a mock completion request
func (fp *FakeProvider) Complete(ctx context.Context, req *shared.CompletionRequest) (*shared.CompletionResponse, error) {
	if err := shared.ValidateCompletionRequest(req); err != nil {
		return nil, err
	}

	fp.mu.Lock()
	fp.callCount++
	fp.lastRequest = req
	fp.requests = append(fp.requests, req)
	fp.mu.Unlock()

	key := PromptOf(req)

	fp.mu.RLock()
	delay, hasDelay := fp.delays[key]
	var failure error
	for fragment, err := range fp.errors {
		if strings.Contains(key, fragment) {
			failure = err
			break
		}
	}
	response, exact := fp.responses[key]
	if !exact {
		for fragment, r := range fp.contains {
			if strings.Contains(key, fragment) {
				response = r
				break
			}
		}
	}
	responder := fp.responder
	fp.mu.RUnlock()

	if hasDelay {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	if failure != nil {
		return nil, failure
	}

	if response != nil {
		return response, nil
	}

	if responder != nil {
		return responder(req)
	}

	return TextResponse(fmt.Sprintf("Mock response for: %s", key)), nil
}

// PromptOf returns the content of the first user message of a request
func PromptOf(req *shared.CompletionRequest) string {
	for _, msg := range req.Messages {
		if msg.Role == shared.RoleUser && msg.Content != "" {
			return msg.Content
		}
	}
	return ""
}

// TextResponse builds a plain assistant response
func TextResponse(content string) *shared.CompletionResponse {
	return &shared.CompletionResponse{
		Content: content,
		Messages: []shared.Message{
			{
				Role:    shared.RoleAssistant,
				Content: content,
			},
		},
		Usage: shared.TokenUsage{
			PromptTokens:     10,
			CompletionTokens: 20,
			TotalTokens:      30,
		},
		StopReason: "stop",
	}
}
