package providers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
)

// ErrEmptyResponse indicates the model returned no usable text.
var ErrEmptyResponse = errors.New("empty response from model")

// GenerateOptions tunes a fallback-capable generation call.
type GenerateOptions struct {
	Temperature    float64
	ResponseFormat *ResponseFormat
	MaxTokens      int

	// SystemPrompt, when set, is sent ahead of the user prompt as a
	// system-role message.
	SystemPrompt string

	// Purpose appears in log lines ("toc-parsing", "page-finding", ...).
	Purpose string

	// EnableFallback retries with FallbackModel when the primary model
	// fails or returns an empty response.
	EnableFallback bool
	FallbackModel  string

	// Attempts is the per-model retry count for transient errors (default 2).
	Attempts uint
	Delay    time.Duration
}

// GenerateWithFallback runs a prompt against the primary model, retrying
// transient failures, then against the fallback model when that is enabled.
// Empty responses count as failures. The returned result is always from the
// model that succeeded.
func GenerateWithFallback(ctx context.Context, client LLMClient, logger *slog.Logger, model, prompt string, opts GenerateOptions) (*ChatResult, error) {
	if client == nil {
		return nil, fmt.Errorf("%s: no model client configured", opts.Purpose)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Attempts == 0 {
		opts.Attempts = 2
	}
	if opts.Delay == 0 {
		opts.Delay = time.Second
	}

	result, err := generateOnce(ctx, client, model, prompt, opts)
	if err == nil {
		logger.Debug("generation complete", "purpose", opts.Purpose, "model", model)
		return result, nil
	}

	logger.Warn("generation failed",
		"purpose", opts.Purpose,
		"model", model,
		"error", err)

	if !opts.EnableFallback || opts.FallbackModel == "" || opts.FallbackModel == model {
		return nil, err
	}

	logger.Info("falling back to secondary model",
		"purpose", opts.Purpose,
		"model", opts.FallbackModel)

	result, fbErr := generateOnce(ctx, client, opts.FallbackModel, prompt, opts)
	if fbErr != nil {
		logger.Warn("fallback generation failed",
			"purpose", opts.Purpose,
			"model", opts.FallbackModel,
			"error", fbErr)
		return nil, errors.Join(err, fbErr)
	}

	logger.Debug("generation complete via fallback", "purpose", opts.Purpose, "model", opts.FallbackModel)
	return result, nil
}

func generateOnce(ctx context.Context, client LLMClient, model, prompt string, opts GenerateOptions) (*ChatResult, error) {
	var result *ChatResult

	err := retry.Do(
		func() error {
			req := UserPrompt(model, prompt, opts.Temperature)
			if opts.SystemPrompt != "" {
				req.Messages = append([]Message{{Role: "system", Content: opts.SystemPrompt}}, req.Messages...)
			}
			req.ResponseFormat = opts.ResponseFormat
			req.MaxTokens = opts.MaxTokens

			res, err := client.Chat(ctx, req)
			if err != nil {
				return err
			}
			if strings.TrimSpace(res.Content) == "" && len(res.ParsedJSON) == 0 {
				return ErrEmptyResponse
			}
			result = res
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(opts.Attempts),
		retry.Delay(opts.Delay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}
	return result, nil
}
