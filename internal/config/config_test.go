package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(Options{SearchPaths: []string{dir}, DotEnv: filepath.Join(dir, ".env")})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.File != "" {
		t.Errorf("expected no config file, got %s", cfg.File)
	}
	if cfg.UserID != "default_user" || cfg.Provider.Name != "gemini" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.Orchestrator.Workers != 3 || cfg.Orchestrator.StrictTopics {
		t.Errorf("unexpected orchestrator defaults %+v", cfg.Orchestrator)
	}
	if cfg.HTTP.Port != 5000 || cfg.HTTP.RateLimitPerMin != 10 {
		t.Errorf("unexpected http defaults %+v", cfg.HTTP)
	}
	if cfg.Provider.Timeout != 2*time.Minute {
		t.Errorf("timeout = %v", cfg.Provider.Timeout)
	}
	if !strings.HasSuffix(cfg.SessionsDir(), "sessions") || !strings.HasSuffix(cfg.MemoryBankPath(), "memory_bank.json") {
		t.Errorf("unexpected derived paths %s %s", cfg.SessionsDir(), cfg.MemoryBankPath())
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "studyplan.yaml", `
data_dir: /tmp/plans
user_id: alice
provider:
  name: openai
  model: gpt-4o-mini
  timeout: 45s
http:
  port: 8080
  allowed_origins: ["https://a.example", "https://b.example"]
orchestrator:
  workers: 6
  strict_topics: true
calendar:
  timezone: Europe/Berlin
`)

	t.Setenv("STUDYPLAN_PROVIDER_MODEL", "gpt-4.1")
	t.Setenv("STUDYPLAN_HTTP_PORT", "9090")

	cfg, err := Load(Options{SearchPaths: []string{dir}, DotEnv: filepath.Join(dir, ".env")})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.File == "" {
		t.Error("expected config file to be reported")
	}
	if cfg.DataDir != "/tmp/plans" || cfg.UserID != "alice" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Provider.Model != "gpt-4.1" {
		t.Errorf("env should override file, model = %s", cfg.Provider.Model)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("env should override file, port = %d", cfg.HTTP.Port)
	}
	if cfg.Provider.Timeout != 45*time.Second {
		t.Errorf("timeout = %v", cfg.Provider.Timeout)
	}
	if len(cfg.HTTP.AllowedOrigins) != 2 {
		t.Errorf("origins = %v", cfg.HTTP.AllowedOrigins)
	}
	if cfg.Orchestrator.Workers != 6 || !cfg.Orchestrator.StrictTopics {
		t.Errorf("orchestrator = %+v", cfg.Orchestrator)
	}
}

func TestLoad_DotEnvAndGoogleKey(t *testing.T) {
	dir := t.TempDir()
	env := writeFile(t, dir, ".env", "GOOGLE_API_KEY=from-dotenv\nSTUDYPLAN_USER_ID=bob\n")
	// godotenv never overrides variables that already exist
	for _, key := range []string{"GOOGLE_API_KEY", "STUDYPLAN_USER_ID", "STUDYPLAN_PROVIDER_API_KEY", "STUDYPLAN_PROVIDER_NAME"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := Load(Options{SearchPaths: []string{dir}, DotEnv: env})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Provider.APIKey != "from-dotenv" {
		t.Errorf("GOOGLE_API_KEY not honoured: %q", cfg.Provider.APIKey)
	}
	if cfg.UserID != "bob" {
		t.Errorf("user id = %q", cfg.UserID)
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	t.Run("explicit file missing", func(t *testing.T) {
		if _, err := Load(Options{File: filepath.Join(dir, "nope.yaml"), DotEnv: filepath.Join(dir, ".env")}); err == nil {
			t.Error("expected error for missing explicit file")
		}
	})

	t.Run("too few workers", func(t *testing.T) {
		path := writeFile(t, dir, "few.yaml", "orchestrator:\n  workers: 2\n")
		_, err := Load(Options{File: path, DotEnv: filepath.Join(dir, ".env")})
		if err == nil || !strings.Contains(err.Error(), "at least 3") {
			t.Errorf("expected workers error, got %v", err)
		}
	})

	t.Run("bad timezone", func(t *testing.T) {
		path := writeFile(t, dir, "tz.yaml", "calendar:\n  timezone: Mars/Olympus\n")
		if _, err := Load(Options{File: path, DotEnv: filepath.Join(dir, ".env")}); err == nil {
			t.Error("expected timezone error")
		}
	})
}
