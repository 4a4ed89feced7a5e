package plan

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/bolt/v3"
)

// ErrParse marks model output that could not be decoded as a schedule.
var ErrParse = errors.New("unparseable study plan")

// ParseError carries the decode failure and a prefix of the offending text.
type ParseError struct {
	Snippet string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%v: %v (input %q)", ErrParse, e.Err, e.Snippet)
}

func (e *ParseError) Unwrap() []error {
	return []error{ErrParse, e.Err}
}

// StripFences removes a leading ``` fence with its optional language tag and a
// trailing ``` fence. Text without fences is only trimmed.
func StripFences(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimLeft(s, "`")

	// language tag: a bare word directly after the fence
	i := 0
	for i < len(s) && isTagByte(s[i]) {
		i++
	}
	if i > 0 && (i == len(s) || s[i] == '\n' || s[i] == '\r' || s[i] == ' ' || s[i] == '\t') {
		s = s[i:]
	}

	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func isTagByte(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// Decode recovers a schedule from model text. A top-level object with a
// "plan" key is unwrapped once; any other single object becomes a
// one-element schedule. Array elements that are not objects are dropped.
func Decode(text string) ([]Entry, error) {
	cleaned := StripFences(text)

	var raw json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, &ParseError{Snippet: snippet(cleaned), Err: err}
	}

	raw = unwrapPlan(raw)
	switch firstByte(raw) {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, &ParseError{Snippet: snippet(cleaned), Err: err}
		}
		entries := make([]Entry, 0, len(items))
		for _, item := range items {
			if firstByte(item) != '{' {
				continue
			}
			var e Entry
			if err := json.Unmarshal(item, &e); err != nil {
				continue
			}
			entries = append(entries, e)
		}
		return entries, nil
	case '{':
		var e Entry
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, &ParseError{Snippet: snippet(cleaned), Err: err}
		}
		return []Entry{e}, nil
	default:
		return nil, &ParseError{Snippet: snippet(cleaned), Err: errors.New("expected a JSON array or object")}
	}
}

func unwrapPlan(raw json.RawMessage) json.RawMessage {
	if firstByte(raw) != '{' {
		return raw
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return raw
	}
	if inner, ok := obj["plan"]; ok {
		return inner
	}
	return raw
}

func firstByte(raw []byte) byte {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return 0
	}
	return trimmed[0]
}

func snippet(s string) string {
	const max = 80
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}

// Parser wraps Decode for callers that must never fail.
type Parser struct {
	log *bolt.Logger
}

func NewParser(log *bolt.Logger) *Parser {
	return &Parser{log: log}
}

// Parse returns the decoded schedule, or an empty schedule when the text
// cannot be decoded. Failures are logged, never returned.
func (p *Parser) Parse(text string) []Entry {
	entries, err := Decode(text)
	if err != nil {
		if p.log != nil {
			p.log.Warn().Err(err).Int("length", len(text)).Msg("Could not parse study plan, continuing with empty schedule")
		}
		return []Entry{}
	}
	return entries
}
