package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fd-guo/ChatGeoPT/internal/upstream"
)

const anthropicURL = "https://api.anthropic.com/v1/messages"

// anthropicClient is the concrete Completer backed by the Anthropic Messages API.
type anthropicClient struct {
	apiKey     string
	model      string
	url        string
	httpClient *http.Client
}

// NewAnthropicClient returns a Completer that calls the Anthropic API.
//   - apiKey: your ANTHROPIC_API_KEY
//   - model:  e.g. "claude-3-5-haiku-latest"
func NewAnthropicClient(apiKey, model string, timeout time.Duration) Completer {
	return &anthropicClient{
		apiKey: apiKey,
		model:  model,
		url:    anthropicURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// ─── ANTHROPIC API SHAPES ─────────────────────────────────────────────────────

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system"`
	Temperature float64            `json:"temperature"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// ─── IMPLEMENTATION ───────────────────────────────────────────────────────────

// Complete sends req and returns the text of the first text content block.
// Penalties and N have no Anthropic equivalent and are not sent.
func (c *anthropicClient) Complete(ctx context.Context, req ChatRequest) (string, error) {
	reqBody := anthropicRequest{
		Model:       c.model,
		MaxTokens:   req.Sampling.MaxTokens,
		System:      req.System,
		Temperature: req.Sampling.Temperature,
		Messages: []anthropicMessage{
			{Role: "user", Content: req.User},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("anthropic: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("anthropic: build request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", upstream.Wrap(upstream.ServiceChat, 0, fmt.Errorf("anthropic: http request: %w", err))
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", upstream.Wrap(upstream.ServiceChat, resp.StatusCode, fmt.Errorf("anthropic: read response body: %w", err))
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(respBytes, &parsed); err != nil {
		return "", upstream.Wrap(upstream.ServiceChat, resp.StatusCode, fmt.Errorf("anthropic: unmarshal response: %w", err))
	}

	if parsed.Error != nil {
		return "", upstream.Wrap(upstream.ServiceChat, resp.StatusCode,
			fmt.Errorf("anthropic: API error %s: %s", parsed.Error.Type, parsed.Error.Message))
	}

	if resp.StatusCode != http.StatusOK {
		return "", upstream.Wrap(upstream.ServiceChat, resp.StatusCode,
			fmt.Errorf("anthropic: unexpected status: %.200s", string(respBytes)))
	}

	for _, block := range parsed.Content {
		if block.Type == "text" && strings.TrimSpace(block.Text) != "" {
			return block.Text, nil
		}
	}

	return "", fmt.Errorf("%w: anthropic: no text content in response", ErrMalformedReply)
}
