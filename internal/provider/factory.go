package provider

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Options selects and configures a provider.
type Options struct {
	Name    string
	Model   string
	APIKey  string
	BaseURL string
	CLIPath string
	CLIArgs []string
	Timeout time.Duration
}

// Names lists the providers New can build.
var Names = []string{"gemini", "openai", "ollama", "anthropic", "cli", "stub"}

// New builds the provider named in opts. An empty name selects gemini.
func New(ctx context.Context, opts Options) (Provider, error) {
	var (
		p   Provider
		err error
	)

	switch strings.ToLower(opts.Name) {
	case "", "gemini":
		p, err = NewGeminiProvider(ctx, opts.APIKey, opts.Model)
	case "openai":
		p, err = NewOpenAIProvider(opts.APIKey, opts.BaseURL, opts.Model)
	case "ollama":
		p, err = NewOllamaProvider(opts.BaseURL, opts.Model)
	case "anthropic":
		var ap *AnthropicProvider
		ap, err = NewAnthropicProvider(opts.APIKey, opts.Model)
		if err == nil && opts.BaseURL != "" {
			ap.SetBaseURL(opts.BaseURL)
		}
		p = ap
	case "cli":
		p, err = NewCLIProvider(opts.CLIPath, opts.CLIArgs)
	case "stub":
		p = NewStubProvider()
	default:
		return nil, fmt.Errorf("unknown provider %q (available: %s)", opts.Name, strings.Join(Names, ", "))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s provider: %w", opts.Name, err)
	}

	return WithTimeout(p, opts.Timeout), nil
}
