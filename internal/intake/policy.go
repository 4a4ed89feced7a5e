package intake

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Policy bounds what a request may ask for.
type Policy struct {
	MinDays           int      `json:"min_days" yaml:"min_days"`
	MaxDays           int      `json:"max_days" yaml:"max_days"`
	Difficulties      []string `json:"difficulties" yaml:"difficulties"`
	MaxSyllabusChars  int      `json:"max_syllabus_chars" yaml:"max_syllabus_chars"`
	SyllabusFileGlobs []string `json:"syllabus_file_globs" yaml:"syllabus_file_globs"`
}

// DefaultPolicy provides the limits used by the CLI and the web API.
var DefaultPolicy = Policy{
	MinDays:           1,
	MaxDays:           60,
	Difficulties:      []string{"easy", "medium", "hard"},
	MaxSyllabusChars:  20000,
	SyllabusFileGlobs: []string{"**/*.txt", "**/*.md", "**/*.pdf"},
}

// ValidationResult represents the outcome of a validation pass.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Warnings []string `json:"warnings"`
	Errors   []string `json:"errors"`
}

// Err joins the errors into one error, or returns nil when valid.
func (v ValidationResult) Err() error {
	if v.Valid {
		return nil
	}
	return fmt.Errorf("invalid request: %s", strings.Join(v.Errors, "; "))
}

// Validate checks a normalized request against the policy.
func (p Policy) Validate(req Request) ValidationResult {
	res := ValidationResult{Valid: true, Warnings: []string{}, Errors: []string{}}
	fail := func(msg string) {
		res.Valid = false
		res.Errors = append(res.Errors, msg)
	}

	switch {
	case req.Syllabus == "":
		fail("syllabus is required")
	case p.MaxSyllabusChars > 0 && len(req.Syllabus) > p.MaxSyllabusChars:
		fail(fmt.Sprintf("syllabus is too long (%d characters, limit %d)", len(req.Syllabus), p.MaxSyllabusChars))
	case len(req.Syllabus) < 4:
		res.Warnings = append(res.Warnings, "syllabus is very short; the plan may be vague")
	}

	if req.Days == "" {
		fail("days is required")
	} else if n, err := req.DayCount(); err != nil {
		fail(err.Error())
	} else if n < p.MinDays || (p.MaxDays > 0 && n > p.MaxDays) {
		fail(fmt.Sprintf("days must be between %d and %d", p.MinDays, p.MaxDays))
	}

	if req.Difficulty == "" {
		fail("difficulty is required")
	} else if len(p.Difficulties) > 0 && !slices.Contains(p.Difficulties, strings.ToLower(req.Difficulty)) {
		res.Warnings = append(res.Warnings, fmt.Sprintf("unusual difficulty %q (expected one of %s)", req.Difficulty, strings.Join(p.Difficulties, ", ")))
	}

	return res
}

// CheckSyllabusFile reports whether path matches an allowed syllabus glob.
func (p Policy) CheckSyllabusFile(path string) error {
	name := filepath.ToSlash(path)
	for _, pattern := range p.SyllabusFileGlobs {
		if ok, err := doublestar.Match(pattern, name); err == nil && ok {
			return nil
		}
		// patterns are written relative; allow a bare file name to match too
		if ok, err := doublestar.Match(pattern, filepath.Base(name)); err == nil && ok {
			return nil
		}
	}
	return fmt.Errorf("syllabus file type not allowed: %s", filepath.Base(path))
}
