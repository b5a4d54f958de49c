// Package narrative writes an optional prose summary of a scored result.
// It only ever reads the numbers; scoring is complete before it runs.
package narrative

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/assessiq/backend/internal/models"
)

// Modes selecting the LLM backend.
const (
	ModeOff  = "off"
	ModeMock = "mock"
	ModeCLI  = "cli"
	ModeAPI  = "api"
)

const maxNarrativeRunes = 2000

type Config struct {
	Mode    string
	Model   string
	APIKey  string
	CLIPath string
}

// Writer wraps an LLMClient with result-specific prompting.
type Writer struct {
	llm    LLMClient
	model  string
	logger *slog.Logger
}

// New returns a Writer for the configured mode, or nil when narratives are
// switched off. A nil *Writer is safe to call.
func New(cfg Config, logger *slog.Logger) *Writer {
	var llm LLMClient
	model := cfg.Mode

	switch cfg.Mode {
	case ModeOff, "":
		logger.Info("narrative generation disabled")
		return nil
	case ModeMock:
		llm = NewMockClient()
		logger.Info("narrative using mock client")
	case ModeCLI:
		path := cfg.CLIPath
		if path == "" {
			path = "claude"
		}
		llm = NewCLIClient(path, cfg.Model)
		model = "claude-cli"
		logger.Info("narrative using claude CLI", "path", path)
	default:
		model = cfg.Model
		if model == "" {
			model = "claude-sonnet-4-5"
		}
		llm = NewAPIClient(cfg.APIKey, model, logger)
		logger.Info("narrative using anthropic API", "model", model)
	}
	return NewWriter(llm, model, logger)
}

func NewWriter(llm LLMClient, model string, logger *slog.Logger) *Writer {
	return &Writer{llm: llm, model: model, logger: logger}
}

func (w *Writer) ModelName() string {
	if w == nil {
		return ModeOff
	}
	return w.model
}

// Write returns the narrative for a finished result. A nil Writer returns
// an empty string and no error.
func (w *Writer) Write(ctx context.Context, def *models.Definition, r *models.AssessmentResult) (string, error) {
	if w == nil {
		return "", nil
	}
	resp, err := w.llm.Generate(ctx, SystemPrompt(), BuildUserPrompt(def, r))
	if err != nil {
		return "", fmt.Errorf("generate narrative: %w", err)
	}
	text := clean(resp.Content)
	if text == "" {
		return "", fmt.Errorf("generate narrative: %w", ErrEmptyResponse)
	}
	w.logger.Debug("narrative generated",
		"assessment_type", r.AssessmentType,
		"prompt_tokens", resp.PromptTokens,
		"output_tokens", resp.OutputTokens,
	)
	return text, nil
}

// clean strips markdown fences the model sometimes adds and caps the
// length.
func clean(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.Contains(s[:nl], " ") {
			s = s[nl+1:]
		}
		s = strings.TrimSpace(s)
	}
	s = strings.TrimSpace(strings.TrimSuffix(s, "```"))

	if utf8.RuneCountInString(s) > maxNarrativeRunes {
		s = string([]rune(s)[:maxNarrativeRunes])
	}
	return s
}
