package toc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/fichegen/fichegen/internal/prompts/parse_toc"
	"github.com/fichegen/fichegen/internal/providers"
)

// ErrNoClient indicates ToC parsing was requested without a configured
// model client.
var ErrNoClient = errors.New("no model client configured for ToC parsing")

// ErrBadEntries indicates the model's output did not decode into a valid
// entry list.
var ErrBadEntries = errors.New("model output is not a valid ToC entry list")

var entriesSchema = jsonschema.MustCompileString("toc_entries.json", parse_toc.EntriesSchema)

// Parser converts raw front-matter text into structured ToC entries using
// a generative model.
type Parser struct {
	Client         providers.LLMClient
	Model          string
	FallbackModel  string
	EnableFallback bool
	Logger         *slog.Logger
}

// Parse asks the model to structure the ToC text and validates the result.
// Every failure is returned as an error; nothing is raised past the caller.
func (p *Parser) Parse(ctx context.Context, tocText string) ([]Entry, error) {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if p.Client == nil {
		return nil, ErrNoClient
	}

	prompt := parse_toc.BuildUserPrompt(tocText)
	result, err := providers.GenerateWithFallback(ctx, p.Client, logger, p.Model, prompt, providers.GenerateOptions{
		Temperature:    0.0,
		SystemPrompt:   parse_toc.SystemPrompt,
		Purpose:        "toc-parsing",
		EnableFallback: p.EnableFallback,
		FallbackModel:  p.FallbackModel,
		ResponseFormat: &providers.ResponseFormat{
			Type:       "json_schema",
			JSONSchema: json.RawMessage(parse_toc.EntriesSchema),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("ToC parsing: %w", err)
	}

	entries, err := decodeEntries(result.Content)
	if err != nil {
		return nil, err
	}

	logger.Info("AI parsed ToC entries", "count", len(entries))
	return entries, nil
}

// decodeEntries strips Markdown fences, validates against the entry schema,
// and unmarshals the model output.
func decodeEntries(raw string) ([]Entry, error) {
	jsonStr := StripCodeFences(raw)

	var decoded any
	if err := json.Unmarshal([]byte(jsonStr), &decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadEntries, err)
	}
	if err := entriesSchema.Validate(decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadEntries, err)
	}

	var entries []Entry
	if err := json.Unmarshal([]byte(jsonStr), &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadEntries, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: empty entry list", ErrBadEntries)
	}
	return entries, nil
}

// StripCodeFences removes a Markdown code-fence wrapper (```json ... ``` or
// ``` ... ```) that models add despite instructions.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}
