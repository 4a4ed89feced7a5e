// Package plan turns model output into a study schedule.
package plan

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Entry is one scheduled study block.
type Entry struct {
	Day             int      `json:"day"`
	TimeSlot        string   `json:"time_slot"`
	Topic           string   `json:"topic"`
	Description     string   `json:"description"`
	Activities      []string `json:"activities"`
	ExpectedOutcome string   `json:"expected_outcome"`
}

// UnmarshalJSON decodes each field on its own so that one badly typed field
// does not discard the rest of the entry.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	*e = Entry{
		Day:             lenientInt(fields["day"]),
		TimeSlot:        lenientString(fields["time_slot"]),
		Topic:           lenientString(fields["topic"]),
		Description:     lenientString(fields["description"]),
		Activities:      lenientStrings(fields["activities"]),
		ExpectedOutcome: lenientString(fields["expected_outcome"]),
	}
	return nil
}

func lenientString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func lenientInt(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return int(f)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "day"))
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return 0
}

func lenientStrings(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s := lenientString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	if s := lenientString(raw); s != "" {
		return []string{s}
	}
	return nil
}

// Topics returns the distinct topic names in schedule order.
func Topics(entries []Entry) []string {
	seen := make(map[string]bool, len(entries))
	var topics []string
	for _, e := range entries {
		if e.Topic == "" || seen[e.Topic] {
			continue
		}
		seen[e.Topic] = true
		topics = append(topics, e.Topic)
	}
	return topics
}

// HasTopic reports whether any entry covers topic.
func HasTopic(entries []Entry, topic string) bool {
	for _, e := range entries {
		if e.Topic == topic {
			return true
		}
	}
	return false
}
