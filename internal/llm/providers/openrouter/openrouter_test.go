package openrouter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Corphon/CurriculumDesigner/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p, err := llm.GetProvider("openrouter", map[string]string{
		"api_key":       "test-key",
		"base_url":      srv.URL + "/",
		"default_model": "test/model",
		"max_tokens":    "128",
	})
	require.NoError(t, err)
	return p.(*Provider)
}

func collect(t *testing.T, ch <-chan llm.StreamResponse) (string, []llm.StreamResponse) {
	t.Helper()
	var text string
	var all []llm.StreamResponse
	for r := range ch {
		text += r.Text
		all = append(all, r)
	}
	return text, all
}

func TestInitializeRequiresKey(t *testing.T) {
	_, err := llm.GetProvider("openrouter", map[string]string{})
	assert.Error(t, err)
}

func TestCompleteText(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, defaultAppName, r.Header.Get("X-Title"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "test/model", body["model"])
		assert.EqualValues(t, 128, body["max_tokens"])
		messages := body["messages"].([]interface{})
		require.Len(t, messages, 2)
		assert.Equal(t, "system", messages[0].(map[string]interface{})["role"])

		fmt.Fprint(w, `{"model":"test/model","choices":[{"message":{"content":"hello"},"finish_reason":"stop"}],"usage":{"prompt_tokens":4,"completion_tokens":1,"total_tokens":5}}`)
	})

	resp, err := p.CompleteText(context.Background(), llm.CompletionRequest{Prompt: "hi", SystemPrompt: "be brief"})
	require.NoError(t, err)
	assert.Equal(t, "hello", resp.Text)
	assert.Equal(t, 5, resp.TokensUsed)
	assert.Equal(t, "OpenRouter", resp.ProviderName)
}

func TestCompleteTextAPIError(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"slow down"}}`)
	})

	_, err := p.CompleteText(context.Background(), llm.CompletionRequest{Prompt: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "slow down")
}

func TestStreamCompletion(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, true, body["stream"])

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, ": keep-alive\n\n")
		fmt.Fprint(w, `data: {"model":"test/model","choices":[{"delta":{"content":"Hel"}}]}`+"\n\n")
		fmt.Fprint(w, `data: {"choices":[{"delta":{"content":"lo"}}]}`+"\n\n")
		fmt.Fprint(w, `data: {"choices":[{"delta":{},"finish_reason":"stop"}]}`+"\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	})

	ch, err := p.StreamCompletion(context.Background(), llm.CompletionRequest{Prompt: "hi"})
	require.NoError(t, err)
	text, all := collect(t, ch)
	assert.Equal(t, "Hello", text)
	last := all[len(all)-1]
	assert.True(t, last.Done)
	assert.NoError(t, last.Err)
	assert.Equal(t, "stop", last.FinishReason)
	assert.Equal(t, "test/model", last.ModelName)
}

func TestStreamCompletionTruncated(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `data: {"choices":[{"delta":{"content":"partial"}}]}`+"\n\n")
	})

	ch, err := p.StreamCompletion(context.Background(), llm.CompletionRequest{Prompt: "hi"})
	require.NoError(t, err)
	text, all := collect(t, ch)
	assert.Equal(t, "partial", text)
	last := all[len(all)-1]
	assert.True(t, last.Done)
	assert.Error(t, last.Err)
}

func TestStreamCompletionErrorEvent(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `data: {"error":{"message":"provider overloaded"}}`+"\n\n")
	})

	ch, err := p.StreamCompletion(context.Background(), llm.CompletionRequest{Prompt: "hi"})
	require.NoError(t, err)
	_, all := collect(t, ch)
	require.Len(t, all, 1)
	assert.ErrorContains(t, all[0].Err, "provider overloaded")
}
