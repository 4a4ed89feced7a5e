package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/studyplan/internal/config"
	"github.com/felixgeelhaar/studyplan/internal/credential"
	"github.com/felixgeelhaar/studyplan/internal/events"
	"github.com/felixgeelhaar/studyplan/internal/memory"
	"github.com/felixgeelhaar/studyplan/internal/notes"
	"github.com/felixgeelhaar/studyplan/internal/observe"
	"github.com/felixgeelhaar/studyplan/internal/orchestrate"
	"github.com/felixgeelhaar/studyplan/internal/plugin"
	"github.com/felixgeelhaar/studyplan/internal/provider"
	"github.com/felixgeelhaar/studyplan/internal/session"
	"github.com/felixgeelhaar/studyplan/internal/store"
)

// App holds everything a command needs, built from configuration.
type App struct {
	Config      *config.Config
	Observer    *observe.Observer
	Store       *store.SQLiteStore
	Sessions    *session.Store
	Memory      *memory.Bank
	Notes       *notes.Sink
	Events      *events.Bus
	Credentials *credential.Manager

	errOut  io.Writer
	closers []func() error
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(config.Options{File: configFile})
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("data-dir") {
		cfg.DataDir = dataDir
	}
	if flags.Changed("user") {
		cfg.UserID = userID
	}
	if flags.Changed("provider") {
		cfg.Provider.Name = providerName
	}
	if flags.Changed("model") {
		cfg.Provider.Model = modelName
	}
	if flags.Changed("verbose") {
		cfg.Log.Verbose = verbose
	}
	if flags.Changed("json") {
		cfg.Log.JSON = jsonLogs
	}
	return cfg, nil
}

func newApp(cmd *cobra.Command) (*App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	errOut := cmd.ErrOrStderr()
	var obs *observe.Observer
	if cfg.Log.JSON {
		obs = observe.NewJSON(errOut, cfg.Log.Verbose)
	} else {
		obs = observe.New(errOut, cfg.Log.Verbose)
	}

	app := &App{Config: cfg, Observer: obs, Events: events.New(), errOut: errOut}
	app.closers = append(app.closers, obs.Close)

	if app.Store, err = store.NewSQLiteStore(cfg.MetadataDB(), cfg.NotesDir()); err != nil {
		return nil, fmt.Errorf("failed to init store: %w", err)
	}
	app.closers = append(app.closers, app.Store.Close)

	if app.Sessions, err = session.NewStore(cfg.SessionsDir(), session.WithLogger(obs.Log())); err != nil {
		app.Close()
		return nil, err
	}
	if app.Memory, err = memory.NewBank(cfg.MemoryBankPath()); err != nil {
		app.Close()
		return nil, err
	}
	if app.Credentials, err = credential.NewManager(); err != nil {
		app.Close()
		return nil, err
	}
	app.Notes = notes.NewSink(app.Store)
	return app, nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// secret reads a stored configuration value, decrypting secrets.
func (a *App) secret(ctx context.Context, key string) string {
	raw, err := a.Store.GetConfig(ctx, key)
	if err != nil || raw == "" {
		return ""
	}
	val, err := a.Credentials.Reveal(key, raw)
	if err != nil {
		a.Observer.Log().Warn().Str("key", key).Err(err).Msg("stored secret could not be decrypted")
		return ""
	}
	return val
}

// Provider builds the configured model gateway.
func (a *App) Provider(ctx context.Context) (provider.Provider, error) {
	pc := a.Config.Provider
	name := pc.Name
	if name == "" {
		name = "gemini"
	}

	apiKey := pc.APIKey
	if apiKey == "" {
		apiKey = a.secret(ctx, name+".api_key")
	}
	baseURL := pc.BaseURL
	if baseURL == "" {
		baseURL, _ = a.Store.GetConfig(ctx, name+".base_url")
	}

	switch name {
	case "plugin":
		path := pc.PluginPath
		if path == "" {
			path, _ = a.Store.GetConfig(ctx, "plugin.path")
		}
		if path == "" {
			return nil, errors.New("provider.plugin_path is not set")
		}
		gw, err := plugin.Launch(ctx, path, a.errOut)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, gw.Close)
		return provider.WithTimeout(gw, pc.Timeout), nil
	case "cli":
		path := pc.CLIPath
		if path == "" {
			path, _ = a.Store.GetConfig(ctx, "cli.path")
		}
		if path == "" {
			var err error
			if path, err = detectCLI(); err != nil {
				return nil, err
			}
		}
		return provider.New(ctx, provider.Options{Name: "cli", CLIPath: path, Timeout: pc.Timeout})
	}

	p, err := provider.New(ctx, provider.Options{
		Name:    name,
		Model:   pc.Model,
		APIKey:  apiKey,
		BaseURL: baseURL,
		Timeout: pc.Timeout,
	})
	if err != nil {
		return nil, err
	}
	if c, ok := p.(io.Closer); ok {
		a.closers = append(a.closers, c.Close)
	}
	return p, nil
}

func detectCLI() (string, error) {
	for _, t := range []string{"gemini", "claude", "llm"} {
		if path, err := exec.LookPath(t); err == nil {
			return path, nil
		}
	}
	return "", errors.New("no local CLI model detected (tried gemini, claude, llm)")
}

// Orchestrator wires the configured provider into a new orchestrator.
func (a *App) Orchestrator(ctx context.Context) (*orchestrate.Orchestrator, error) {
	p, err := a.Provider(ctx)
	if err != nil {
		return nil, err
	}
	return a.orchestratorWith(p)
}

func (a *App) orchestratorWith(p provider.Provider) (*orchestrate.Orchestrator, error) {
	return orchestrate.New(orchestrate.Config{
		StudyPlan:    p,
		Sessions:     a.Sessions,
		Memory:       a.Memory,
		NotesSink:    a.Notes,
		Observer:     a.Observer,
		Events:       a.Events,
		UserID:       a.Config.UserID,
		Workers:      a.Config.Orchestrator.Workers,
		StrictTopics: a.Config.Orchestrator.StrictTopics,
	})
}

// Tracker returns an orchestrator for progress commands, which never call a
// model.
func (a *App) Tracker() (*orchestrate.Orchestrator, error) {
	return a.orchestratorWith(provider.NewStubProvider())
}
