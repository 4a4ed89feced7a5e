package provider

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// CLIProvider delegates generation to a locally installed model CLI that
// takes the prompt as its last argument and prints the answer.
type CLIProvider struct {
	binaryPath string
	args       []string
	timeout    time.Duration
}

func NewCLIProvider(binaryPath string, args []string) (*CLIProvider, error) {
	if binaryPath == "" {
		return nil, fmt.Errorf("binary path is required for CLI provider")
	}
	return &CLIProvider{
		binaryPath: binaryPath,
		args:       args,
		timeout:    2 * time.Minute,
	}, nil
}

func (p *CLIProvider) Name() string {
	return "cli-" + p.binaryPath
}

func (p *CLIProvider) Generate(ctx context.Context, prompt string) (*Response, error) {
	args := make([]string, 0, len(p.args)+1)
	args = append(args, p.args...)
	args = append(args, prompt)

	execCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	output, err := exec.CommandContext(execCtx, p.binaryPath, args...).Output()
	if err != nil {
		if errors.Is(execCtx.Err(), context.DeadlineExceeded) {
			return nil, generationError(p.Name(), fmt.Errorf("timed out after %s: %w", p.timeout, err))
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			err = fmt.Errorf("%w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, generationError(p.Name(), err)
	}

	result := strings.TrimSpace(string(output))
	if result == "" {
		return nil, generationError(p.Name(), ErrEmptyResponse)
	}

	return &Response{
		Content: result,
		Usage: Usage{
			TotalTokens: len(strings.Fields(result)),
		},
	}, nil
}
