package ai_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd-guo/ChatGeoPT/internal/ai"
	"github.com/fd-guo/ChatGeoPT/internal/upstream"
)

func TestOpenAIClient_Complete(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"ok\": true}"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	c := ai.NewOpenAIClient("test-key", "gpt-3.5-turbo", srv.URL+"/", 5*time.Second)
	reply, err := c.Complete(context.Background(), ai.ChatRequest{
		System:   "system text",
		User:     "user text",
		Sampling: ai.DefaultSampling(),
	})
	require.NoError(t, err)
	assert.Equal(t, `{"ok": true}`, reply)

	assert.Equal(t, "gpt-3.5-turbo", got["model"])
	assert.InDelta(t, 1024, got["max_tokens"], 0)
	assert.InDelta(t, 1, got["n"], 0)
	assert.InDelta(t, 0.5, got["temperature"], 1e-9)
	assert.InDelta(t, 0.6, got["presence_penalty"], 1e-9)

	msgs, ok := got["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.Equal(t, "user text", msgs[1].(map[string]any)["content"])
}

func TestOpenAIClient_Non200IsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited","type":"requests"}}`))
	}))
	defer srv.Close()

	c := ai.NewOpenAIClient("k", "m", srv.URL, 5*time.Second)
	_, err := c.Complete(context.Background(), ai.ChatRequest{Sampling: ai.DefaultSampling()})
	require.Error(t, err)

	ue, ok := upstream.As(err)
	require.True(t, ok, "expected *upstream.Error, got %v", err)
	assert.Equal(t, upstream.ServiceChat, ue.Service)
	assert.Equal(t, http.StatusTooManyRequests, ue.StatusCode)
}

func TestOpenAIClient_NetworkFailureIsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := ai.NewOpenAIClient("k", "m", url, time.Second)
	_, err := c.Complete(context.Background(), ai.ChatRequest{})

	_, ok := upstream.As(err)
	assert.True(t, ok, "expected *upstream.Error, got %v", err)
}

func TestOpenAIClient_EmptyChoicesIsMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := ai.NewOpenAIClient("k", "m", srv.URL, time.Second)
	_, err := c.Complete(context.Background(), ai.ChatRequest{})
	assert.True(t, errors.Is(err, ai.ErrMalformedReply), "got %v", err)
}
