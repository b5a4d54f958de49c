package narrative

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrEmptyResponse is returned when a backend answers with no text.
var ErrEmptyResponse = errors.New("empty narrative response")

const maxStderr = 512

// CLIClient pipes the prompt through a locally installed claude binary.
// Narratives then work in development without an API key.
type CLIClient struct {
	path  string
	model string
}

// NewCLIClient returns a client for the binary at path. An empty model lets
// the CLI pick its default.
func NewCLIClient(path, model string) *CLIClient {
	return &CLIClient{path: path, model: model}
}

func (c *CLIClient) args(systemPrompt string) []string {
	args := []string{"--print", "--output-format", "text", "--max-turns", "1"}
	if c.model != "" {
		args = append(args, "--model", c.model)
	}
	return append(args, "--system-prompt", systemPrompt)
}

func (c *CLIClient) Generate(ctx context.Context, systemPrompt string, userPrompt string) (*LLMResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, c.path, c.args(systemPrompt)...)
	cmd.Stdin = strings.NewReader(userPrompt)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		msg := strings.TrimSpace(stderr.String())
		if len(msg) > maxStderr {
			msg = msg[:maxStderr] + "..."
		}
		return nil, fmt.Errorf("%s: %w: %s", c.path, err, msg)
	}

	text := strings.TrimSpace(stdout.String())
	if text == "" {
		return nil, fmt.Errorf("%s: %w", c.path, ErrEmptyResponse)
	}
	// the CLI reports no usage in text mode; estimate at four bytes a token
	return &LLMResponse{
		Content:      text,
		PromptTokens: (len(systemPrompt) + len(userPrompt)) / 4,
		OutputTokens: len(text) / 4,
	}, nil
}
