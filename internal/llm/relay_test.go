package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/revrost/go-openrouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/segment-research/internal/resilience"
)

type fakeRelay struct {
	got  openrouter.ChatCompletionRequest
	resp openrouter.ChatCompletionResponse
	err  error
}

func (f *fakeRelay) CreateChatCompletion(_ context.Context, req openrouter.ChatCompletionRequest) (openrouter.ChatCompletionResponse, error) {
	f.got = req
	return f.resp, f.err
}

func relayServer(t *testing.T, status int, body string, got *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		if got != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(got))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRelayProvider_Normalizes(t *testing.T) {
	var got map[string]any
	srv := relayServer(t, http.StatusOK, `{
		"id": "gen-1", "model": "anthropic/claude-sonnet-4.5",
		"choices": [{"index": 0, "message": {"role": "assistant", "content": "hello", "reasoning": "pondering"}}],
		"usage": {"prompt_tokens": 12, "completion_tokens": 3}
	}`, &got)

	req := UserPrompt("claude-sonnet-4-5-20250929", 256, "hi")
	req.System = "sys"
	resp, err := NewRelayProvider(NewRelayClient("test-key", srv.URL+"/", 5*time.Second)).Create(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, "hello", resp.Text())
	assert.Equal(t, "pondering", resp.Reasoning())
	assert.Equal(t, "relay", resp.Provider)
	assert.Equal(t, "claude-sonnet-4-5-20250929", resp.Model)
	assert.Equal(t, Usage{InputTokens: 12, OutputTokens: 3}, resp.Usage)

	assert.Equal(t, "anthropic/claude-sonnet-4.5", got["model"])
	assert.EqualValues(t, 256, got["max_tokens"])
	msgs, ok := got["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.Equal(t, "sys", msgs[0].(map[string]any)["content"])
}

func TestRelayProvider_PartContent(t *testing.T) {
	srv := relayServer(t, http.StatusOK, `{
		"choices": [{"message": {"role": "assistant", "content": [
			{"type": "text", "text": "Hello, "},
			{"type": "image_url", "image_url": {"url": "https://x/y.png"}},
			{"type": "text", "text": "world"}
		]}}]
	}`, nil)

	resp, err := NewRelayProvider(NewRelayClient("test-key", srv.URL, 0)).Create(context.Background(), UserPrompt("gpt-4o", 10, "x"))

	require.NoError(t, err)
	assert.Equal(t, "Hello, world", resp.Text())
	assert.Empty(t, resp.Reasoning())
	assert.Equal(t, Usage{}, resp.Usage)
}

func TestRelayProvider_ClassifiesStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   resilience.Kind
	}{
		{"api_error_rate_limit", http.StatusTooManyRequests, `{"error": {"message": "rate limited", "code": 429}}`, resilience.KindRateLimit},
		{"api_error_bad_gateway", http.StatusBadGateway, `{"error": {"message": "upstream", "code": 502}}`, resilience.KindServer},
		{"request_error_unavailable", http.StatusServiceUnavailable, `<html>down</html>`, resilience.KindServer},
		{"api_error_unauthorized", http.StatusUnauthorized, `{"error": {"message": "bad key", "code": 401}}`, resilience.KindFatal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := relayServer(t, tt.status, tt.body, nil)

			_, err := NewRelayProvider(NewRelayClient("test-key", srv.URL, 0)).Create(context.Background(), UserPrompt("m", 10, "x"))

			var pe *resilience.ProviderError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, "relay", pe.Provider)
			assert.Equal(t, tt.status, pe.StatusCode)
			assert.Equal(t, tt.kind, pe.Kind)
		})
	}
}

func TestRelayProvider_NoChoicesIsFatal(t *testing.T) {
	fake := &fakeRelay{resp: openrouter.ChatCompletionResponse{ID: "gen-3"}}

	resp, err := NewRelayProvider(fake).Create(context.Background(), UserPrompt("claude-haiku-4-5-20251001", 10, "x"))

	require.Error(t, err)
	assert.Nil(t, resp)
	var pe *resilience.ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, resilience.KindFatal, pe.Kind)
	assert.Contains(t, err.Error(), "no choices")
	assert.Equal(t, "anthropic/claude-haiku-4.5", fake.got.Model)
}

func TestRelayProvider_ForwardsTemperature(t *testing.T) {
	fake := &fakeRelay{resp: openrouter.ChatCompletionResponse{
		Choices: []openrouter.ChatCompletionChoice{{Message: openrouter.ChatCompletionMessage{Content: openrouter.Content{Text: "ok"}}}},
	}}
	temp := 0.25
	req := UserPrompt("gpt-4o", 10, "x")
	req.Temperature = &temp

	_, err := NewRelayProvider(fake).Create(context.Background(), req)

	require.NoError(t, err)
	assert.InDelta(t, 0.25, fake.got.Temperature, 1e-6)
	require.Len(t, fake.got.Messages, 1)
	assert.Equal(t, openrouter.ChatMessageRoleUser, fake.got.Messages[0].Role)
}
