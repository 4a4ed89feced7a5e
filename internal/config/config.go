// Package config loads runtime settings from studyplan.yaml, STUDYPLAN_*
// environment variables and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. STUDYPLAN_PROVIDER_NAME.
const EnvPrefix = "STUDYPLAN"

type Config struct {
	DataDir      string
	UserID       string
	Provider     ProviderConfig
	HTTP         HTTPConfig
	Orchestrator OrchestratorConfig
	Calendar     CalendarConfig
	Log          LogConfig

	// File is the config file that was read, empty when none was found.
	File string
}

type ProviderConfig struct {
	Name       string
	Model      string
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	PluginPath string
	CLIPath    string
}

type HTTPConfig struct {
	Port            int
	Mode            string
	RateLimitPerMin int
	AllowedOrigins  []string
}

type OrchestratorConfig struct {
	Workers      int
	StrictTopics bool
}

type CalendarConfig struct {
	CredentialsPath string
	CalendarID      string
	Timezone        string
}

type LogConfig struct {
	Verbose bool
	JSON    bool
}

// Options controls where Load looks.
type Options struct {
	// File overrides the search path when set.
	File string
	// SearchPaths replaces the default search directories.
	SearchPaths []string
	// DotEnv is loaded before reading the environment. Missing files are ignored.
	DotEnv string
}

// DefaultDataDir is $HOME/.studyplan, or ./.studyplan when no home is set.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".studyplan"
	}
	return filepath.Join(home, ".studyplan")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", DefaultDataDir())
	v.SetDefault("user_id", "default_user")

	v.SetDefault("provider.name", "gemini")
	v.SetDefault("provider.timeout", "2m")

	v.SetDefault("http.port", 5000)
	v.SetDefault("http.mode", "release")
	v.SetDefault("http.rate_limit_per_min", 10)
	v.SetDefault("http.allowed_origins", []string{"*"})

	v.SetDefault("orchestrator.workers", 3)
	v.SetDefault("orchestrator.strict_topics", false)

	v.SetDefault("calendar.calendar_id", "primary")

	v.SetDefault("log.verbose", false)
	v.SetDefault("log.json", false)
}

// Load reads configuration. Precedence: environment, then file, then defaults.
func Load(opts Options) (*Config, error) {
	if os.Getenv("STUDYPLAN_ENV") != "production" {
		dotenv := opts.DotEnv
		if dotenv == "" {
			dotenv = ".env"
		}
		if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("error reading %s: %w", dotenv, err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.File != "" {
		v.SetConfigFile(opts.File)
	} else {
		v.SetConfigName("studyplan")
		v.SetConfigType("yaml")
		paths := opts.SearchPaths
		if paths == nil {
			paths = []string{".", "./config", DefaultDataDir()}
		}
		for _, p := range paths {
			v.AddConfigPath(p)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.File != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{File: v.ConfigFileUsed()}
	cfg.DataDir = v.GetString("data_dir")
	cfg.UserID = v.GetString("user_id")

	cfg.Provider.Name = v.GetString("provider.name")
	cfg.Provider.Model = v.GetString("provider.model")
	cfg.Provider.APIKey = v.GetString("provider.api_key")
	cfg.Provider.BaseURL = v.GetString("provider.base_url")
	cfg.Provider.Timeout = v.GetDuration("provider.timeout")
	cfg.Provider.PluginPath = v.GetString("provider.plugin_path")
	cfg.Provider.CLIPath = v.GetString("provider.cli_path")
	if cfg.Provider.APIKey == "" && cfg.Provider.Name == "gemini" {
		cfg.Provider.APIKey = os.Getenv("GOOGLE_API_KEY")
	}

	cfg.HTTP.Port = v.GetInt("http.port")
	cfg.HTTP.Mode = v.GetString("http.mode")
	cfg.HTTP.RateLimitPerMin = v.GetInt("http.rate_limit_per_min")
	cfg.HTTP.AllowedOrigins = splitList(v.GetStringSlice("http.allowed_origins"))

	cfg.Orchestrator.Workers = v.GetInt("orchestrator.workers")
	cfg.Orchestrator.StrictTopics = v.GetBool("orchestrator.strict_topics")

	cfg.Calendar.CredentialsPath = v.GetString("calendar.credentials_path")
	cfg.Calendar.CalendarID = v.GetString("calendar.calendar_id")
	cfg.Calendar.Timezone = v.GetString("calendar.timezone")

	cfg.Log.Verbose = v.GetBool("log.verbose")
	cfg.Log.JSON = v.GetBool("log.json")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// env values arrive as one comma-separated string
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Validate rejects settings the rest of the program cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.DataDir == "" {
		errs = append(errs, errors.New("data_dir must not be empty"))
	}
	if c.Orchestrator.Workers < 3 {
		errs = append(errs, fmt.Errorf("orchestrator.workers must be at least 3, got %d", c.Orchestrator.Workers))
	}
	if c.HTTP.Port < 0 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("http.port out of range: %d", c.HTTP.Port))
	}
	if c.HTTP.RateLimitPerMin < 0 {
		errs = append(errs, errors.New("http.rate_limit_per_min must not be negative"))
	}
	if c.Provider.Timeout < 0 {
		errs = append(errs, errors.New("provider.timeout must not be negative"))
	}
	if c.Calendar.Timezone != "" {
		if _, err := time.LoadLocation(c.Calendar.Timezone); err != nil {
			errs = append(errs, fmt.Errorf("calendar.timezone: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Paths derived from DataDir.
func (c *Config) SessionsDir() string { return filepath.Join(c.DataDir, "sessions") }
func (c *Config) MemoryBankPath() string { return filepath.Join(c.DataDir, "memory_bank.json") }
func (c *Config) MetadataDB() string { return filepath.Join(c.DataDir, "metadata.db") }
func (c *Config) NotesDir() string { return filepath.Join(c.DataDir, "notes") }
