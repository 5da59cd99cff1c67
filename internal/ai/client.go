// Package ai turns free text into the structured records the assistant acts
// on. A Completer sends one system + user exchange to a hosted chat model; the
// Extractor wraps it with the task prompts and decodes the reply strictly
// against the expected record shape.
package ai

import (
	"context"
	"errors"
)

// ErrMalformedReply is returned when a model reply cannot be decoded into the
// expected record. It stops the request; nothing retries it.
var ErrMalformedReply = errors.New("ai: malformed model reply")

// Sampling holds the generation parameters sent with every request.
// Providers ignore the fields they do not support.
type Sampling struct {
	MaxTokens        int
	N                int
	Temperature      float64
	TopP             float64
	FrequencyPenalty float64
	PresencePenalty  float64
}

// DefaultSampling returns the parameters both assistant views use.
func DefaultSampling() Sampling {
	return Sampling{
		MaxTokens:        1024,
		N:                1,
		Temperature:      0.5,
		TopP:             1,
		FrequencyPenalty: 0,
		PresencePenalty:  0.6,
	}
}

// ChatRequest is one system instruction plus one user message.
type ChatRequest struct {
	System   string
	User     string
	Sampling Sampling
}

// Completer is the interface the Extractor uses to reach a chat model.
// The concrete implementations live in openai.go and anthropic.go.
// Tests inject a stub that returns canned replies.
type Completer interface {
	// Complete returns the text content of the single completion.
	//
	// Transport failures and non-2xx responses are returned as
	// *upstream.Error. An empty completion is ErrMalformedReply.
	Complete(ctx context.Context, req ChatRequest) (string, error)
}
