// Package intake loads and checks generation requests before any model is
// called.
package intake

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Request is the user-supplied input for one generation run.
type Request struct {
	Syllabus     string `json:"syllabus" yaml:"syllabus"`
	SyllabusFile string `json:"syllabus_file,omitempty" yaml:"syllabus_file,omitempty"`
	Days         string `json:"days" yaml:"days"`
	Difficulty   string `json:"difficulty" yaml:"difficulty"`
	UserID       string `json:"user_id,omitempty" yaml:"user_id,omitempty"`
}

// yamlRequest lets `days: 3` and `days: "3"` both decode.
type yamlRequest struct {
	Syllabus     string    `yaml:"syllabus"`
	SyllabusFile string    `yaml:"syllabus_file"`
	Days         yaml.Node `yaml:"days"`
	Difficulty   string    `yaml:"difficulty"`
	UserID       string    `yaml:"user_id"`
}

// LoadRequest reads a request file (JSON or YAML). A relative syllabus_file
// is resolved against the request file's directory.
func LoadRequest(path string) (*Request, error) {
	data, err := os.ReadFile(path) // #nosec G304
	if err != nil {
		return nil, fmt.Errorf("failed to read request file: %w", err)
	}

	var req Request
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		var raw struct {
			Request
			Days json.RawMessage `json:"days"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to unmarshal JSON request: %w", err)
		}
		req = raw.Request
		req.Days = strings.Trim(string(raw.Days), `"`)
	case ".yaml", ".yml":
		var raw yamlRequest
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to unmarshal YAML request: %w", err)
		}
		req = Request{
			Syllabus:     raw.Syllabus,
			SyllabusFile: raw.SyllabusFile,
			Days:         raw.Days.Value,
			Difficulty:   raw.Difficulty,
			UserID:       raw.UserID,
		}
	default:
		return nil, fmt.Errorf("unsupported request format: %s (use .json or .yaml)", ext)
	}

	if req.SyllabusFile != "" && !filepath.IsAbs(req.SyllabusFile) {
		req.SyllabusFile = filepath.Join(filepath.Dir(path), req.SyllabusFile)
	}
	return &req, nil
}

// Normalize trims whitespace and lower-cases the difficulty.
func (r *Request) Normalize() {
	r.Syllabus = strings.TrimSpace(r.Syllabus)
	r.Days = strings.TrimSpace(r.Days)
	r.Difficulty = strings.ToLower(strings.TrimSpace(r.Difficulty))
	r.UserID = strings.TrimSpace(r.UserID)
}

// DayCount parses Days.
func (r Request) DayCount() (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(r.Days))
	if err != nil {
		return 0, fmt.Errorf("days must be a whole number, got %q", r.Days)
	}
	return n, nil
}
