package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

var stubDaysPattern = regexp.MustCompile(`(?i)number of days:\s*(\d+)`)

// StubProvider answers without a model service. Schedule prompts (those asking
// for a JSON array) get a small fenced JSON plan, every other prompt gets
// markdown. Respond overrides the canned behaviour.
type StubProvider struct {
	Respond func(prompt string) (string, error)
	Latency time.Duration

	mu      sync.Mutex
	prompts []string
}

func NewStubProvider() *StubProvider {
	return &StubProvider{}
}

func (p *StubProvider) Name() string {
	return "stub"
}

func (p *StubProvider) Generate(ctx context.Context, prompt string) (*Response, error) {
	p.mu.Lock()
	p.prompts = append(p.prompts, prompt)
	p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, generationError(p.Name(), err)
	}
	if p.Latency > 0 {
		select {
		case <-ctx.Done():
			return nil, generationError(p.Name(), ctx.Err())
		case <-time.After(p.Latency):
		}
	}

	var (
		content string
		err     error
	)
	if p.Respond != nil {
		content, err = p.Respond(prompt)
	} else {
		content = cannedResponse(prompt)
	}
	if err != nil {
		return nil, generationError(p.Name(), err)
	}

	words := len(strings.Fields(content))
	return &Response{
		Content: content,
		Usage: Usage{
			PromptTokens:     len(strings.Fields(prompt)),
			CompletionTokens: words,
			TotalTokens:      len(strings.Fields(prompt)) + words,
		},
	}, nil
}

// Prompts returns every prompt received so far.
func (p *StubProvider) Prompts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.prompts))
	copy(out, p.prompts)
	return out
}

func cannedResponse(prompt string) string {
	lower := strings.ToLower(prompt)
	switch {
	case strings.Contains(lower, "json array"):
		return cannedSchedule(prompt)
	case strings.Contains(lower, "resources"):
		return "## Resources\n\n" +
			"- **Book**: A first course in the subject. Covers the fundamentals.\n" +
			"- **Video**: Lecture series. Good for visual learners.\n" +
			"- **Practice**: Weekly problem sets with solutions.\n"
	default:
		return "# Study Notes\n\n" +
			"## Key concepts\n\n- Definitions and core vocabulary\n- Worked examples\n\n" +
			"## Review questions\n\n1. Summarize the main idea in two sentences.\n"
	}
}

func cannedSchedule(prompt string) string {
	days := 2
	if m := stubDaysPattern.FindStringSubmatch(prompt); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 && n <= 60 {
			days = n
		}
	}

	entries := make([]map[string]any, 0, days)
	for d := 1; d <= days; d++ {
		entries = append(entries, map[string]any{
			"day":              d,
			"time_slot":        "9:00 AM - 11:00 AM",
			"topic":            fmt.Sprintf("Topic %d", d),
			"description":      fmt.Sprintf("Core material for day %d", d),
			"activities":       []string{"Read the chapter", "Solve practice problems"},
			"expected_outcome": fmt.Sprintf("Comfortable with topic %d", d),
		})
	}
	raw, _ := json.MarshalIndent(entries, "", "  ")
	return "```json\n" + string(raw) + "\n```"
}
