package e2e

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func build(t *testing.T, rootDir, pkg, name string) string {
	t.Helper()
	binPath := filepath.Join(t.TempDir(), name)
	buildCmd := exec.Command("go", "build", "-o", binPath, pkg)
	buildCmd.Dir = rootDir
	if out, err := buildCmd.CombinedOutput(); err != nil {
		t.Fatalf("Failed to build %s: %v\n%s", pkg, err, out)
	}
	return binPath
}

func sessionFiles(t *testing.T, dataDir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dataDir, "sessions", "*.json"))
	if err != nil {
		t.Fatal(err)
	}
	return matches
}

func TestE2E_Generate(t *testing.T) {
	rootDir, _ := filepath.Abs("../../")
	binPath := build(t, rootDir, "github.com/felixgeelhaar/studyplan/cmd/studyplan", "studyplan_e2e")

	dataDir := t.TempDir()
	runCmd := exec.Command(binPath, "generate",
		"--provider", "stub",
		"--syllabus", "Intro to machine learning",
		"--days", "2",
		"--difficulty", "easy",
		"--no-menu",
		"--data-dir", dataDir,
	)
	runCmd.Env = append(os.Environ(), "HOME="+t.TempDir(), "STUDYPLAN_ENV=production")
	output, err := runCmd.CombinedOutput()
	outStr := string(output)
	t.Logf("Output:\n%s", outStr)
	if err != nil {
		t.Fatalf("studyplan failed: %v", err)
	}

	for _, want := range []string{"Topic 1", "Topic 2", "Session ID:", "StudyPlanAgent"} {
		if !strings.Contains(outStr, want) {
			t.Errorf("output missing %q", want)
		}
	}

	files := sessionFiles(t, dataDir)
	if len(files) != 1 {
		t.Fatalf("expected one session file, got %v", files)
	}
	raw, err := os.ReadFile(files[0])
	if err != nil {
		t.Fatal(err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("session file is not JSON: %v", err)
	}
	for _, key := range []string{"session_id", "user_id", "study_plan", "notes", "resources", "progress"} {
		if _, ok := doc[key]; !ok {
			t.Errorf("session file missing %q", key)
		}
	}

	if _, err := os.Stat(filepath.Join(dataDir, "memory_bank.json")); err != nil {
		t.Errorf("memory bank not written: %v", err)
	}
	notes, _ := filepath.Glob(filepath.Join(dataDir, "notes", "*.txt"))
	if len(notes) != 1 {
		t.Error("notes file not written")
	}
}

func TestE2E_PluginProvider(t *testing.T) {
	rootDir, _ := filepath.Abs("../../")
	binPath := build(t, rootDir, "github.com/felixgeelhaar/studyplan/cmd/studyplan", "studyplan_e2e")
	pluginPath := build(t, rootDir, "github.com/felixgeelhaar/studyplan/plugins/stub-gateway", "stub-gateway")

	dataDir := t.TempDir()
	runCmd := exec.Command(binPath, "generate",
		"--provider", "plugin",
		"--syllabus", "Linear algebra",
		"--days", "3",
		"--difficulty", "medium",
		"--no-menu",
		"--data-dir", dataDir,
	)
	runCmd.Env = append(os.Environ(),
		"HOME="+t.TempDir(),
		"STUDYPLAN_ENV=production",
		"STUDYPLAN_PROVIDER_PLUGIN_PATH="+pluginPath,
	)
	output, err := runCmd.CombinedOutput()
	t.Logf("Output:\n%s", output)
	if err != nil {
		t.Fatalf("studyplan with plugin failed: %v", err)
	}
	if !strings.Contains(string(output), "Topic 3") {
		t.Error("expected a three day schedule from the plugin gateway")
	}
	if len(sessionFiles(t, dataDir)) != 1 {
		t.Error("expected one session file")
	}
}
