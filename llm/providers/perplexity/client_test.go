package perplexity

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fodmap-research/llm/providers/shared"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	p, err := NewProvider(Config{APIKey: "pplx-test", BaseURL: server.URL}, zerolog.Nop())
	require.NoError(t, err)
	return p
}

func respondWith(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}
}

func TestSearch(t *testing.T) {
	var got map[string]any
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer pplx-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		respondWith(`{
			"id": "1",
			"model": "sonar",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "Dark chocolate is low FODMAP in 30g servings."}, "finish_reason": "stop"}],
			"citations": ["https://www.monashfodmap.com/blog/chocolate", "https://example.org/fodmap"]
		}`)(w, r)
	})

	result, err := p.Search(context.Background(), "What is the intolerance level for Fructans in chocolate?")
	require.NoError(t, err)

	assert.Equal(t, "Dark chocolate is low FODMAP in 30g servings.", result.Summary)
	assert.Equal(t, []string{"https://www.monashfodmap.com/blog/chocolate", "https://example.org/fodmap"}, result.Citations)

	assert.Equal(t, "sonar", got["model"])
	messages := got["messages"].([]any)
	require.Len(t, messages, 1)
	msg := messages[0].(map[string]any)
	assert.Equal(t, "user", msg["role"])
	assert.Equal(t, "What is the intolerance level for Fructans in chocolate?", msg["content"])
}

func TestSearchSkipsBadCitations(t *testing.T) {
	p := newTestProvider(t, respondWith(`{
		"choices": [{"message": {"role": "assistant", "content": "answer"}}],
		"citations": ["https://good.example", 42, null, "", "not a uri", "https://also.example/page"]
	}`))

	result, err := p.Search(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://good.example", "https://also.example/page"}, result.Citations)
}

func TestSearchEmptyCitations(t *testing.T) {
	p := newTestProvider(t, respondWith(`{"choices": [{"message": {"content": "answer"}}], "citations": []}`))

	result, err := p.Search(context.Background(), "q")
	require.NoError(t, err)
	assert.NotNil(t, result.Citations)
	assert.Empty(t, result.Citations)
}

func TestSearchNoContent(t *testing.T) {
	p := newTestProvider(t, respondWith(`{"choices": [], "citations": ["https://a.example"]}`))

	result, err := p.Search(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, "No response found.", result.Summary)
}

func TestSearchEnvelopeFailures(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{name: "missing citations", body: `{"choices": [{"message": {"content": "answer"}}]}`, want: ErrMissingCitations},
		{name: "empty body", body: ``, want: ErrMissingRawResponse},
		{name: "not json", body: `<html>oops</html>`, want: ErrMissingRawResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProvider(t, respondWith(tt.body))
			_, err := p.Search(context.Background(), "q")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSearchHTTPError(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"bad key"}`, http.StatusUnauthorized)
	})

	_, err := p.Search(context.Background(), "q")
	require.Error(t, err)

	var pe *shared.ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, shared.ErrAuth, pe.Code)
}

func TestCompleteRejectsStructuredOutput(t *testing.T) {
	p := newTestProvider(t, respondWith(`{}`))

	_, err := p.Complete(context.Background(), &shared.CompletionRequest{
		Messages: []shared.Message{{Role: shared.RoleUser, Content: "x"}},
		Options:  shared.CompletionOptions{Model: "sonar", ResponseFormat: shared.ResponseFormatJSON},
	})

	var pe *shared.ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, shared.ErrUnsupportedFeature, pe.Code)
}

func TestNewProviderRequiresKey(t *testing.T) {
	_, err := NewProvider(Config{}, zerolog.Nop())
	assert.Error(t, err)
}
