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

// DefaultOpenAIBaseURL is the public OpenAI API root. Any OpenAI-compatible
// endpoint (Azure proxies, DeepSeek, local gateways) can be substituted.
const DefaultOpenAIBaseURL = "https://api.openai.com/v1"

// openAIClient is the concrete Completer backed by an OpenAI-compatible
// /chat/completions endpoint.
type openAIClient struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewOpenAIClient returns a Completer that calls the chat completions API.
//   - apiKey:  your OPENAI_API_KEY
//   - model:   e.g. "gpt-3.5-turbo"
//   - baseURL: API root without the trailing /chat/completions
func NewOpenAIClient(apiKey, model, baseURL string, timeout time.Duration) Completer {
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	return &openAIClient{
		apiKey:  apiKey,
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// ─── OPENAI-COMPATIBLE API SHAPES ────────────────────────────────────────────

type openAIRequest struct {
	Model            string          `json:"model"`
	Messages         []openAIMessage `json:"messages"`
	MaxTokens        int             `json:"max_tokens"`
	N                int             `json:"n"`
	Temperature      float64         `json:"temperature"`
	TopP             float64         `json:"top_p"`
	FrequencyPenalty float64         `json:"frequency_penalty"`
	PresencePenalty  float64         `json:"presence_penalty"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// ─── IMPLEMENTATION ───────────────────────────────────────────────────────────

// Complete sends req and returns the content of the first choice.
func (c *openAIClient) Complete(ctx context.Context, req ChatRequest) (string, error) {
	reqBody := openAIRequest{
		Model: c.model,
		Messages: []openAIMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
		MaxTokens:        req.Sampling.MaxTokens,
		N:                req.Sampling.N,
		Temperature:      req.Sampling.Temperature,
		TopP:             req.Sampling.TopP,
		FrequencyPenalty: req.Sampling.FrequencyPenalty,
		PresencePenalty:  req.Sampling.PresencePenalty,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("openai: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions",
		bytes.NewReader(bodyBytes),
	)
	if err != nil {
		return "", fmt.Errorf("openai: build request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", upstream.Wrap(upstream.ServiceChat, 0, fmt.Errorf("openai: http request: %w", err))
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB cap
	if err != nil {
		return "", upstream.Wrap(upstream.ServiceChat, resp.StatusCode, fmt.Errorf("openai: read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return "", upstream.Wrap(upstream.ServiceChat, resp.StatusCode,
			fmt.Errorf("openai: unexpected status: %.200s", string(respBytes)))
	}

	var parsed openAIResponse
	if err := json.Unmarshal(respBytes, &parsed); err != nil {
		return "", upstream.Wrap(upstream.ServiceChat, resp.StatusCode, fmt.Errorf("openai: unmarshal response: %w", err))
	}

	if parsed.Error != nil {
		return "", upstream.Wrap(upstream.ServiceChat, resp.StatusCode,
			fmt.Errorf("openai: API error %s: %s", parsed.Error.Type, parsed.Error.Message))
	}

	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("%w: openai: no completion content", ErrMalformedReply)
	}

	return parsed.Choices[0].Message.Content, nil
}
