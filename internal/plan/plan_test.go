package plan

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/felixgeelhaar/bolt/v3"
)

func sampleEntries() []Entry {
	return []Entry{
		{Day: 1, TimeSlot: "9:00 AM - 11:00 AM", Topic: "Linear Regression", Description: "Fit a line", Activities: []string{"Read", "Code"}, ExpectedOutcome: "Can fit a model"},
		{Day: 2, TimeSlot: "2:00 PM - 4:00 PM", Topic: "Classification", Description: "Logistic regression", Activities: []string{"Quiz"}, ExpectedOutcome: "Can classify"},
	}
}

func TestDecode_RoundTrip(t *testing.T) {
	entries := sampleEntries()
	raw, _ := json.Marshal(entries)

	got, err := Decode(string(raw))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !reflect.DeepEqual(got, entries) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, entries)
	}
}

func TestDecode_Fences(t *testing.T) {
	raw, _ := json.Marshal(sampleEntries())
	bare, err := Decode(string(raw))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	tests := []struct {
		name string
		text string
	}{
		{"json tag", "```json\n" + string(raw) + "\n```"},
		{"upper tag", "```JSON\n" + string(raw) + "\n```"},
		{"no tag", "```\n" + string(raw) + "\n```"},
		{"surrounding whitespace", "\n\n  ```json\n" + string(raw) + "\n```  \n"},
		{"single line", "```" + string(raw) + "```"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.text)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if !reflect.DeepEqual(got, bare) {
				t.Errorf("fenced result differs from bare result")
			}
		})
	}
}

func TestDecode_PlanKeyAndSingleObject(t *testing.T) {
	entry := sampleEntries()[0]
	one, _ := json.Marshal(entry)
	list, _ := json.Marshal(sampleEntries())

	t.Run("plan key unwraps array", func(t *testing.T) {
		got, err := Decode(`{"plan": ` + string(list) + `}`)
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		if len(got) != 2 {
			t.Errorf("Expected 2 entries, got %d", len(got))
		}
	})

	t.Run("plan key holding object", func(t *testing.T) {
		got, err := Decode(`{"plan": ` + string(one) + `}`)
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		if len(got) != 1 || got[0].Topic != entry.Topic {
			t.Errorf("Expected single wrapped entry, got %+v", got)
		}
	})

	t.Run("single object wraps", func(t *testing.T) {
		got, err := Decode(string(one))
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		if !reflect.DeepEqual(got, []Entry{entry}) {
			t.Errorf("Expected [entry], got %+v", got)
		}
	})
}

func TestDecode_Failures(t *testing.T) {
	inputs := []string{
		"",
		"Here is your plan: day one, read.",
		"```json\n[{\"day\": 1,\n```",
		`"just a string"`,
		`42`,
	}

	for _, in := range inputs {
		_, err := Decode(in)
		if !errors.Is(err, ErrParse) {
			t.Errorf("Decode(%q): expected ErrParse, got %v", in, err)
		}
		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Errorf("Decode(%q): expected *ParseError", in)
		}
	}
}

func TestDecode_FailureSnippetIsValidUTF8(t *testing.T) {
	in := "Voici votre plan : " + strings.Repeat("révision ", 20)
	_, err := Decode(in)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	if !utf8.ValidString(pe.Snippet) || !strings.HasSuffix(pe.Snippet, "...") {
		t.Errorf("snippet should be truncated on a character boundary: %q", pe.Snippet)
	}
	if n := utf8.RuneCountInString(strings.TrimSuffix(pe.Snippet, "...")); n != 80 {
		t.Errorf("snippet keeps %d characters, want 80", n)
	}
}

func TestDecode_Lenient(t *testing.T) {
	text := `[
		{"day": "2", "topic": "Graphs", "activities": "Draw a graph", "extra": true},
		"not an object",
		{"day": "Day 3", "topic": 7, "time_slot": null},
		{"topic": "No day"}
	]`

	got, err := Decode(text)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expected 3 entries, got %d: %+v", len(got), got)
	}
	if got[0].Day != 2 || !reflect.DeepEqual(got[0].Activities, []string{"Draw a graph"}) {
		t.Errorf("unexpected first entry %+v", got[0])
	}
	if got[1].Day != 3 || got[1].Topic != "7" {
		t.Errorf("unexpected second entry %+v", got[1])
	}
	if got[2].Day != 0 || got[2].Topic != "No day" {
		t.Errorf("unexpected third entry %+v", got[2])
	}
}

func TestParser_NeverFails(t *testing.T) {
	var buf bytes.Buffer
	p := NewParser(bolt.New(bolt.NewJSONHandler(&buf)))

	got := p.Parse("I could not produce JSON today, sorry.")
	if got == nil || len(got) != 0 {
		t.Errorf("Expected empty non-nil schedule, got %#v", got)
	}
	if !strings.Contains(buf.String(), "Could not parse study plan") {
		t.Errorf("Expected parse failure to be logged, got %q", buf.String())
	}

	raw, _ := json.Marshal(sampleEntries())
	if got := p.Parse(string(raw)); len(got) != 2 {
		t.Errorf("Expected 2 entries, got %d", len(got))
	}

	if got := NewParser(nil).Parse("{"); len(got) != 0 {
		t.Errorf("Expected empty schedule without logger")
	}
}

func TestTopics(t *testing.T) {
	entries := append(sampleEntries(), Entry{Day: 3, Topic: "Linear Regression"}, Entry{Day: 3})
	got := Topics(entries)
	want := []string{"Linear Regression", "Classification"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Topics = %v, want %v", got, want)
	}
	if !HasTopic(entries, "Classification") || HasTopic(entries, "Clustering") {
		t.Error("HasTopic returned wrong result")
	}
}

func TestMarkdown(t *testing.T) {
	entries := []Entry{
		{Day: 2, Topic: "B"},
		{Topic: "Floating"},
		{Day: 1, Topic: "A", TimeSlot: "9-10", Activities: []string{"Read"}, ExpectedOutcome: "Know A"},
		{Day: 1, Topic: "A2"},
	}

	md := Markdown("Intro", entries)
	day1 := strings.Index(md, "## Day 1")
	day2 := strings.Index(md, "## Day 2")
	unscheduled := strings.Index(md, "## Unscheduled")
	if !(day1 >= 0 && day1 < day2 && day2 < unscheduled) {
		t.Errorf("unexpected day ordering:\n%s", md)
	}
	if strings.Index(md, "### A (9-10)") > strings.Index(md, "### A2") {
		t.Errorf("entries within a day should keep their order:\n%s", md)
	}
	if !strings.Contains(md, "- Read") || !strings.Contains(md, "**Expected outcome:** Know A") {
		t.Errorf("missing entry details:\n%s", md)
	}

	if empty := Markdown("", nil); !strings.Contains(empty, "# Study Plan") || !strings.Contains(empty, "No schedule") {
		t.Errorf("unexpected empty rendering: %q", empty)
	}
}
