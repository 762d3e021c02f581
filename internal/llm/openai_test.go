package llm

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scriptgen/internal/domain"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestClient(url string) *OpenAIClient {
	return NewOpenAIClient(Config{
		Endpoint:       url,
		APIKey:         "sk-test",
		Timeout:        5 * time.Second,
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     time.Millisecond,
	}, discard)
}

func TestOpenAIClient_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-4", body.Model)
		assert.Equal(t, 4000, body.MaxTokens)
		assert.InDelta(t, 0.7, body.Temperature, 0.0001)
		require.Len(t, body.Messages, 2)
		assert.Equal(t, "system", body.Messages[0].Role)

		_, _ = w.Write([]byte(`{
			"model": "gpt-4-0613",
			"choices": [{"message": {"role": "assistant", "content": "# Script"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 120, "completion_tokens": 3000, "total_tokens": 3120}
		}`))
	}))
	defer srv.Close()

	resp, err := newTestClient(srv.URL).Complete(context.Background(), CompletionRequest{
		Model:       "gpt-4",
		MaxTokens:   4000,
		Temperature: 0.7,
		Messages: []Message{
			{Role: "system", Content: "be helpful"},
			{Role: "user", Content: "write"},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "# Script", resp.Text)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Equal(t, "gpt-4-0613", resp.Model)
	assert.Equal(t, 120, resp.PromptTokens)
	assert.Equal(t, 3000, resp.OutputTokens)
	assert.Equal(t, 3120, resp.TotalTokens)
}

func TestOpenAIClient_RetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error": {"message": "slow down", "type": "rate_limit_exceeded"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"choices": [{"message": {"content": "ok"}}]}`))
	}))
	defer srv.Close()

	resp, err := newTestClient(srv.URL).Complete(context.Background(), CompletionRequest{Model: "gpt-4"})

	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)
	assert.Equal(t, int32(2), calls.Load())
}

func TestOpenAIClient_AuthErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "Incorrect API key provided", "type": "invalid_request_error"}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Complete(context.Background(), CompletionRequest{Model: "gpt-4"})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrExternalAPI)
	assert.Equal(t, int32(1), calls.Load())

	var apiErr *domain.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "invalid_request_error", apiErr.Code)
	assert.Equal(t, "Incorrect API key provided", apiErr.Message)
}

func TestOpenAIClient_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices": []}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Complete(context.Background(), CompletionRequest{Model: "gpt-4"})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrExternalAPI)
	assert.Contains(t, err.Error(), "no choices")
}

func TestOpenAIClient_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Complete(context.Background(), CompletionRequest{Model: "gpt-4"})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrExternalAPI)
	assert.Contains(t, err.Error(), "malformed response")
}
