package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// ErrEmptyResponse is returned when the model service answers without any text.
var ErrEmptyResponse = errors.New("model returned no content")

// Response represents the output from the model.
type Response struct {
	Content string `json:"content"`
	Usage   Usage  `json:"usage"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Provider is the model gateway: one prompt in, one text completion out.
// Implementations must be safe for concurrent use.
type Provider interface {
	// Generate sends a single prompt and returns the model's text.
	Generate(ctx context.Context, prompt string) (*Response, error)

	// Name returns the provider identifier (e.g., "gemini", "stub").
	Name() string
}

// GenerationError reports a failed call to the model service.
type GenerationError struct {
	Provider string
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s: generation failed: %v", e.Provider, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

func generationError(provider string, err error) error {
	var ge *GenerationError
	if errors.As(err, &ge) {
		return err
	}
	return &GenerationError{Provider: provider, Err: err}
}

// WithTimeout bounds every Generate call of p. A zero timeout returns p unchanged.
func WithTimeout(p Provider, timeout time.Duration) Provider {
	if timeout <= 0 {
		return p
	}
	return &timeoutProvider{next: p, timeout: timeout}
}

type timeoutProvider struct {
	next    Provider
	timeout time.Duration
}

func (t *timeoutProvider) Name() string {
	return t.next.Name()
}

// Close releases the wrapped provider when it holds resources.
func (t *timeoutProvider) Close() error {
	if c, ok := t.next.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (t *timeoutProvider) Generate(ctx context.Context, prompt string) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	resp, err := t.next.Generate(ctx, prompt)
	if err != nil {
		return nil, generationError(t.next.Name(), err)
	}
	return resp, nil
}
