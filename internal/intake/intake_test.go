package intake

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadRequest(t *testing.T) {
	tmpDir, _ := os.MkdirTemp("", "intake-test-*")
	defer os.RemoveAll(tmpDir)

	jsonPath := filepath.Join(tmpDir, "req.json")
	os.WriteFile(jsonPath, []byte(`{"syllabus": "Intro to ML", "days": 3, "difficulty": "medium"}`), 0o644)

	yamlPath := filepath.Join(tmpDir, "req.yaml")
	os.WriteFile(yamlPath, []byte("syllabus_file: topics.txt\ndays: \"5\"\ndifficulty: Hard\nuser_id: bob\n"), 0o644)

	badPath := filepath.Join(tmpDir, "req.txt")
	os.WriteFile(badPath, []byte("nope"), 0o644)

	t.Run("json with numeric days", func(t *testing.T) {
		req, err := LoadRequest(jsonPath)
		if err != nil {
			t.Fatalf("LoadRequest failed: %v", err)
		}
		if req.Syllabus != "Intro to ML" || req.Days != "3" || req.Difficulty != "medium" {
			t.Errorf("unexpected request %+v", req)
		}
	})

	t.Run("yaml with relative file", func(t *testing.T) {
		req, err := LoadRequest(yamlPath)
		if err != nil {
			t.Fatalf("LoadRequest failed: %v", err)
		}
		if req.Days != "5" || req.UserID != "bob" {
			t.Errorf("unexpected request %+v", req)
		}
		if req.SyllabusFile != filepath.Join(tmpDir, "topics.txt") {
			t.Errorf("syllabus file not resolved: %s", req.SyllabusFile)
		}
	})

	t.Run("unsupported extension", func(t *testing.T) {
		if _, err := LoadRequest(badPath); err == nil {
			t.Error("expected error for .txt request")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadRequest(filepath.Join(tmpDir, "missing.json")); err == nil {
			t.Error("expected error for missing file")
		}
	})
}

func TestPolicy_Validate(t *testing.T) {
	p := DefaultPolicy

	tests := []struct {
		name       string
		req        Request
		valid      bool
		warnings   int
		errorMatch string
	}{
		{"ok", Request{Syllabus: "Intro to ML", Days: "3", Difficulty: "medium"}, true, 0, ""},
		{"missing syllabus", Request{Days: "3", Difficulty: "easy"}, false, 0, "syllabus is required"},
		{"bad days", Request{Syllabus: "Algebra", Days: "three", Difficulty: "easy"}, false, 0, "whole number"},
		{"too many days", Request{Syllabus: "Algebra", Days: "90", Difficulty: "easy"}, false, 0, "between 1 and 60"},
		{"zero days", Request{Syllabus: "Algebra", Days: "0", Difficulty: "easy"}, false, 0, "between"},
		{"missing difficulty", Request{Syllabus: "Algebra", Days: "2"}, false, 0, "difficulty is required"},
		{"unusual difficulty", Request{Syllabus: "Algebra", Days: "2", Difficulty: "insane"}, true, 1, ""},
		{"short syllabus", Request{Syllabus: "ML", Days: "2", Difficulty: "easy"}, true, 1, ""},
		{"huge syllabus", Request{Syllabus: strings.Repeat("x", 20001), Days: "2", Difficulty: "easy"}, false, 0, "too long"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := p.Validate(tt.req)
			if res.Valid != tt.valid {
				t.Errorf("Valid = %v, want %v (errors %v)", res.Valid, tt.valid, res.Errors)
			}
			if len(res.Warnings) != tt.warnings {
				t.Errorf("warnings = %v, want %d", res.Warnings, tt.warnings)
			}
			if tt.errorMatch != "" {
				if err := res.Err(); err == nil || !strings.Contains(err.Error(), tt.errorMatch) {
					t.Errorf("expected error containing %q, got %v", tt.errorMatch, err)
				}
			} else if res.Err() != nil {
				t.Errorf("unexpected error %v", res.Err())
			}
		})
	}
}

func TestPolicy_CheckSyllabusFile(t *testing.T) {
	p := DefaultPolicy
	for _, ok := range []string{"topics.txt", "/home/a/course/outline.md", "docs/syllabus.pdf"} {
		if err := p.CheckSyllabusFile(ok); err != nil {
			t.Errorf("CheckSyllabusFile(%q) = %v", ok, err)
		}
	}
	for _, bad := range []string{"script.sh", "/etc/shadow", "archive.zip"} {
		if err := p.CheckSyllabusFile(bad); err == nil {
			t.Errorf("CheckSyllabusFile(%q) should fail", bad)
		}
	}
}

func TestPolicy_Resolve(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "topics.md")
	os.WriteFile(path, []byte("\n# Week 1\nLinear algebra\n"), 0o644)

	req := &Request{SyllabusFile: path, Days: " 4 ", Difficulty: " EASY "}
	if err := DefaultPolicy.Resolve(req); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if req.Syllabus != "# Week 1\nLinear algebra" || req.Days != "4" || req.Difficulty != "easy" {
		t.Errorf("unexpected resolved request %+v", req)
	}

	inline := &Request{Syllabus: "Given", SyllabusFile: "ignored.exe"}
	if err := DefaultPolicy.Resolve(inline); err != nil || inline.Syllabus != "Given" {
		t.Errorf("inline syllabus should win: %+v, %v", inline, err)
	}

	if err := DefaultPolicy.Resolve(&Request{SyllabusFile: filepath.Join(dir, "run.sh")}); err == nil {
		t.Error("disallowed file type should fail")
	}
}

func TestReadSyllabus_BadPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.pdf")
	os.WriteFile(path, []byte("not a pdf"), 0o644)
	if _, err := ReadSyllabus(path); err == nil {
		t.Error("expected error for invalid pdf")
	}
}
