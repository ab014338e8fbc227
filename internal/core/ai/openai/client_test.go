package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"label-analyzer/internal/core/ai/provider"
	"label-analyzer/internal/core/image"
)

func TestAnalyze(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "gpt-4o-2024-08-06",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "{\"ingredients\": []}"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
		}`))
	}))
	defer srv.Close()

	c := NewClient(provider.Config{APIKey: "sk-test", Model: "gpt-4o", BaseURL: srv.URL})
	defer c.Close()

	resp, err := c.Analyze(context.Background(), &provider.Request{
		SystemPrompt: "system",
		UserPrompt:   "analise",
		MaxTokens:    2048,
		Images:       []*image.Image{{MediaType: "image/png", Data: []byte("png-bytes")}},
	})
	require.NoError(t, err)

	assert.Equal(t, `{"ingredients": []}`, resp.Content)
	assert.Equal(t, "gpt-4o-2024-08-06", resp.Model)
	assert.Equal(t, 15, resp.Usage.TotalTokens)

	assert.Equal(t, "gpt-4o", got["model"])
	assert.EqualValues(t, 2048, got["max_tokens"])
	assert.Equal(t, map[string]any{"type": "json_object"}, got["response_format"])

	messages := got["messages"].([]any)
	require.Len(t, messages, 2)
	user := messages[1].(map[string]any)
	parts := user["content"].([]any)
	require.Len(t, parts, 2)
	imagePart := parts[1].(map[string]any)
	assert.Equal(t, "image_url", imagePart["type"])
	imageURL := imagePart["image_url"].(map[string]any)
	assert.Equal(t, "data:image/png;base64,cG5nLWJ5dGVz", imageURL["url"])
	assert.Equal(t, "high", imageURL["detail"])
}

func TestAnalyzeErrors(t *testing.T) {
	img := []*image.Image{{MediaType: "image/png", Data: []byte("x")}}

	t.Run("api error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error": {"message": "invalid key", "type": "invalid_request_error"}}`))
		}))
		defer srv.Close()

		c := NewClient(provider.Config{APIKey: "bad", Model: "gpt-4o", BaseURL: srv.URL})
		_, err := c.Analyze(context.Background(), &provider.Request{Images: img})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid key")
	})

	t.Run("no choices", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"choices": []}`))
		}))
		defer srv.Close()

		c := NewClient(provider.Config{APIKey: "k", Model: "gpt-4o", BaseURL: srv.URL})
		_, err := c.Analyze(context.Background(), &provider.Request{Images: img})
		assert.Error(t, err)
	})
}

func TestIsReasoningModel(t *testing.T) {
	assert.True(t, isReasoningModel("o3-mini"))
	assert.True(t, isReasoningModel("gpt-5"))
	assert.False(t, isReasoningModel("gpt-4o"))
}
