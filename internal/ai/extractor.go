package ai

import (
	"context"
	"fmt"
	"log/slog"
)

// Extractor runs the two extraction prompts against a Completer and decodes
// the replies. It is safe for concurrent use if the Completer is.
type Extractor struct {
	completer Completer
	sampling  Sampling
	logger    *slog.Logger
}

// NewExtractor returns an Extractor using DefaultSampling.
func NewExtractor(completer Completer, logger *slog.Logger) *Extractor {
	return &Extractor{
		completer: completer,
		sampling:  DefaultSampling(),
		logger:    logger,
	}
}

// ExtractClaim turns a crash description into a ClaimRecord.
func (e *Extractor) ExtractClaim(ctx context.Context, text string) (ClaimRecord, error) {
	raw, err := e.complete(ctx, ClaimSystemPrompt, text)
	if err != nil {
		return ClaimRecord{}, err
	}
	rec, err := DecodeClaimRecord(raw)
	if err != nil {
		e.logger.Warn("ai: claim reply rejected", "error", err, "reply_len", len(raw))
		return ClaimRecord{}, err
	}
	return rec, nil
}

// ExtractLocationTask turns a road question into a LocationTaskRecord.
func (e *Extractor) ExtractLocationTask(ctx context.Context, text string) (LocationTaskRecord, error) {
	raw, err := e.complete(ctx, LocationTaskSystemPrompt, text)
	if err != nil {
		return LocationTaskRecord{}, err
	}
	rec, err := DecodeLocationTask(raw)
	if err != nil {
		e.logger.Warn("ai: location task reply rejected", "error", err, "reply_len", len(raw))
		return LocationTaskRecord{}, err
	}
	return rec, nil
}

func (e *Extractor) complete(ctx context.Context, system, user string) (string, error) {
	raw, err := e.completer.Complete(ctx, ChatRequest{
		System:   system,
		User:     user,
		Sampling: e.sampling,
	})
	if err != nil {
		return "", fmt.Errorf("ai: complete: %w", err)
	}
	e.logger.Debug("ai: reply received", "reply_len", len(raw))
	return raw, nil
}
