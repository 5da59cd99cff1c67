package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd-guo/ChatGeoPT/internal/upstream"
)

func newTestAnthropic(t *testing.T, h http.HandlerFunc) *anthropicClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c := NewAnthropicClient("test-key", "claude-test", time.Second).(*anthropicClient)
	c.url = srv.URL
	return c
}

func TestAnthropicClient_Complete(t *testing.T) {
	var body anthropicRequest
	c := newTestAnthropic(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"{}"}]}`))
	})

	reply, err := c.Complete(context.Background(), ChatRequest{System: "sys", User: "hi", Sampling: DefaultSampling()})
	require.NoError(t, err)
	assert.Equal(t, "{}", reply)
	assert.Equal(t, "sys", body.System)
	assert.Equal(t, 1024, body.MaxTokens)
	require.Len(t, body.Messages, 1)
	assert.Equal(t, "hi", body.Messages[0].Content)
}

func TestAnthropicClient_APIError(t *testing.T) {
	c := newTestAnthropic(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"type":"overloaded_error","message":"Overloaded"}}`))
	})

	_, err := c.Complete(context.Background(), ChatRequest{})
	ue, ok := upstream.As(err)
	require.True(t, ok, "expected *upstream.Error, got %v", err)
	assert.Equal(t, http.StatusServiceUnavailable, ue.StatusCode)
	assert.Contains(t, err.Error(), "Overloaded")
}

func TestAnthropicClient_NoTextBlock(t *testing.T) {
	c := newTestAnthropic(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"content":[{"type":"tool_use"}]}`))
	})

	_, err := c.Complete(context.Background(), ChatRequest{})
	assert.ErrorIs(t, err, ErrMalformedReply)
}
