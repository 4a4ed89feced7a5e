package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/studyplan/internal/intake"
	"github.com/felixgeelhaar/studyplan/internal/orchestrate"
	"github.com/felixgeelhaar/studyplan/internal/session"
	"github.com/felixgeelhaar/studyplan/internal/ui"
	"github.com/felixgeelhaar/studyplan/internal/ui/tui"
)

var (
	genSyllabus     string
	genSyllabusFile string
	genDays         string
	genDifficulty   string
	genRequest      string
	genSession      string
	genTUI          bool
	genNoMenu       bool
	genCopy         bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a study plan, notes and resources from a syllabus",
	Long: `Generate asks the model for a day-by-day schedule, study notes and a
resource list in parallel, saves the session, then offers a progress menu.
Missing inputs are prompted for.`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

func init() {
	RootCmd.AddCommand(generateCmd)
	f := generateCmd.Flags()
	f.StringVarP(&genSyllabus, "syllabus", "s", "", "Syllabus text")
	f.StringVar(&genSyllabusFile, "syllabus-file", "", "Read the syllabus from a .txt, .md or .pdf file")
	f.StringVarP(&genDays, "days", "d", "", "Number of study days")
	f.StringVar(&genDifficulty, "difficulty", "", "Difficulty (easy, medium, hard)")
	f.StringVarP(&genRequest, "request", "r", "", "Load the request from a JSON or YAML file")
	f.StringVar(&genSession, "session", "", "Regenerate into an existing session")
	f.BoolVarP(&genTUI, "tui", "i", false, "Show live agent progress in a TUI")
	f.BoolVar(&genNoMenu, "no-menu", false, "Skip the progress menu after generation")
	f.BoolVar(&genCopy, "copy", false, "Copy the plan as markdown to the clipboard")
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()
	prompter := newPrompter(cmd)

	req, err := collectRequest(ctx, app, prompter, !cmd.Flags().Changed("user"))
	if err != nil {
		return err
	}
	if err := intake.DefaultPolicy.Resolve(req); err != nil {
		return err
	}
	check := intake.DefaultPolicy.Validate(*req)
	for _, w := range check.Warnings {
		fmt.Fprintln(cmd.ErrOrStderr(), ui.InfoStyle.Render("Warning: "+w))
	}
	if err := check.Err(); err != nil {
		return err
	}

	orch, err := app.Orchestrator(ctx)
	if err != nil {
		return err
	}

	oreq := orchestrate.Request{
		Syllabus:   req.Syllabus,
		Days:       req.Days,
		Difficulty: req.Difficulty,
		SessionID:  genSession,
		UserID:     req.UserID,
	}
	res, err := runWithProgress(ctx, cmd, app, orch, oreq)
	if err != nil {
		return err
	}

	renderResult(out, res)

	if genCopy {
		if err := copySession(ctx, app, res.SessionID); err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), ui.ErrorStyle.Render(err.Error()))
		} else {
			fmt.Fprintln(out, ui.InfoStyle.Render("Plan copied to clipboard."))
		}
	}

	if genNoMenu {
		return nil
	}
	return progressMenu(ctx, out, orch, res.SessionID, prompter)
}

// collectRequest merges the request file, flags and prompts, in that order.
// When askUser is set and any input is missing, the user ID is prompted for
// too, defaulting to the configured one.
func collectRequest(ctx context.Context, app *App, p ui.Prompter, askUser bool) (*intake.Request, error) {
	req := &intake.Request{}
	if genRequest != "" {
		loaded, err := intake.LoadRequest(genRequest)
		if err != nil {
			return nil, err
		}
		req = loaded
	}
	if genSyllabus != "" {
		req.Syllabus = genSyllabus
	}
	if genSyllabusFile != "" {
		req.SyllabusFile = genSyllabusFile
	}
	if genDays != "" {
		req.Days = genDays
	}
	if genDifficulty != "" {
		req.Difficulty = genDifficulty
	}
	askUser = askUser && req.UserID == "" && needsInput(req)
	if req.UserID == "" {
		req.UserID = app.Config.UserID
	}

	if fp, ok := p.(*tui.Prompter); ok && needsInput(req) {
		return req, fillWithForm(ctx, app, fp, req, askUser)
	}

	var err error
	if askUser {
		if req.UserID, err = p.Ask("User ID", app.Config.UserID); err != nil {
			return nil, err
		}
		if req.UserID == "" {
			req.UserID = app.Config.UserID
		}
	}
	defDifficulty := preferredDifficulty(ctx, app, req.UserID)

	if req.Syllabus == "" && req.SyllabusFile == "" {
		if req.Syllabus, err = p.Ask("Enter your syllabus or topics", ""); err != nil {
			return nil, err
		}
	}
	if req.Days == "" {
		if req.Days, err = p.Ask("Enter number of days", "7"); err != nil {
			return nil, err
		}
	}
	if req.Difficulty == "" {
		if req.Difficulty, err = p.Ask("Enter difficulty level (easy/medium/hard)", defDifficulty); err != nil {
			return nil, err
		}
	}
	return req, nil
}

func preferredDifficulty(ctx context.Context, app *App, userID string) string {
	if h, err := app.Memory.History(ctx, userID); err == nil {
		if d := h.PreferredDifficulty(); d != "" {
			return d
		}
	}
	return "medium"
}

func needsInput(req *intake.Request) bool {
	return (req.Syllabus == "" && req.SyllabusFile == "") || req.Days == "" || req.Difficulty == ""
}

func fillWithForm(ctx context.Context, app *App, p *tui.Prompter, req *intake.Request, askUser bool) error {
	required := func(s string) string {
		if s == "" {
			return "required"
		}
		return ""
	}
	days := req.Days
	if days == "" {
		days = "7"
	}
	difficulty := req.Difficulty
	if difficulty == "" {
		difficulty = preferredDifficulty(ctx, app, req.UserID)
	}

	fields := []tui.Field{
		{Label: "Syllabus or topics", Value: req.Syllabus, Placeholder: "e.g. Linear algebra, probability", Validate: func(s string) string {
			if req.SyllabusFile != "" {
				return ""
			}
			return required(s)
		}},
		{Label: "Number of days", Value: days, Validate: func(s string) string {
			if _, err := (intake.Request{Days: s}).DayCount(); err != nil {
				return "whole number"
			}
			return ""
		}},
		{Label: "Difficulty", Value: difficulty, Placeholder: "easy, medium or hard", Validate: required},
	}
	if askUser {
		fields = append(fields, tui.Field{Label: "User ID", Value: req.UserID, Validate: func(s string) string {
			if s != "" && session.ValidateID(s) != nil {
				return "no path separators or leading dot"
			}
			return required(s)
		}})
	}

	values, err := p.Form("New study plan", fields)
	if err != nil {
		return err
	}
	req.Syllabus, req.Days, req.Difficulty = values[0], values[1], values[2]
	if askUser {
		req.UserID = values[3]
	}
	return nil
}

// runWithProgress runs Process while reporting agent progress, either in the
// TUI or as plain lines on stderr.
func runWithProgress(ctx context.Context, cmd *cobra.Command, app *App, orch *orchestrate.Orchestrator, req orchestrate.Request) (*orchestrate.Result, error) {
	if !genTUI {
		ui.Attach(app.Events, ui.NewPlain(cmd.ErrOrStderr()))
		return orch.Process(ctx, req)
	}

	model := tui.NewModel("Generating study plan", agentNames()...)
	program := tea.NewProgram(model, tea.WithInput(cmd.InOrStdin()), tea.WithOutput(cmd.ErrOrStderr()))
	u := tui.NewTUI(program)
	ui.Attach(app.Events, u)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		res    *orchestrate.Result
		runErr error
		done   = make(chan struct{})
	)
	go func() {
		defer close(done)
		res, runErr = orch.Process(ctx, req)
		u.Done(runErr)
	}()

	final, err := program.Run()
	if err != nil {
		return nil, fmt.Errorf("tui: %w", err)
	}
	if m, ok := final.(tui.Model); ok && m.Quitting && !m.Finished {
		cancel()
	}
	<-done
	return res, runErr
}

func renderResult(out io.Writer, res *orchestrate.Result) {
	fmt.Fprintln(out, ui.Section("Study Plan", ui.Schedule(res.StudyPlan, nil)))
	if res.Notes != "" {
		fmt.Fprintln(out, ui.Section("Study Notes", res.Notes))
	}
	if res.Resources != "" {
		fmt.Fprintln(out, ui.Section("Resources", res.Resources))
	}
	fmt.Fprintf(out, "Session ID: %s\n", res.SessionID)
	if res.NotesFile != "" {
		fmt.Fprintf(out, "Notes saved to: %s\n", res.NotesFile)
	}
	fmt.Fprintln(out, ui.Trace(res.Trace))
}

func copySession(ctx context.Context, app *App, id string) error {
	s, err := app.Sessions.Load(ctx, id)
	if err != nil {
		return err
	}
	if err := clipboard.WriteAll(session.Markdown(s)); err != nil {
		return fmt.Errorf("clipboard unavailable: %w", err)
	}
	return nil
}

var menuOptions = []string{
	"Mark a topic as completed",
	"View completed topics",
	"Continue studying",
	"Exit",
}

// progressMenu loops until the user continues or exits.
func progressMenu(ctx context.Context, out io.Writer, orch *orchestrate.Orchestrator, sessionID string, p ui.Prompter) error {
	for {
		choice, err := p.Choose("Progress tracking", menuOptions)
		if errors.Is(err, ui.ErrAborted) {
			fmt.Fprintln(out, "Goodbye! Your progress has been saved.")
			return nil
		}
		if err != nil {
			return err
		}

		switch choice {
		case 0:
			topic, err := p.Ask("Enter the topic you completed", "")
			if errors.Is(err, ui.ErrAborted) {
				continue
			}
			if err != nil {
				return err
			}
			if topic == "" {
				fmt.Fprintln(out, ui.ErrorStyle.Render("No topic given."))
				continue
			}
			if err := orch.MarkProgress(ctx, sessionID, topic); err != nil {
				if errors.Is(err, orchestrate.ErrUnknownTopic) {
					fmt.Fprintln(out, ui.ErrorStyle.Render(err.Error()))
					continue
				}
				return err
			}
			_, stats, err := orch.Progress(ctx, sessionID)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Marked %q as complete.\n%s\n", topic, ui.Stats(stats))
		case 1:
			s, _, err := orch.Progress(ctx, sessionID)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, ui.Progress(s))
		case 2:
			fmt.Fprintln(out, "Happy studying!")
			return nil
		default:
			fmt.Fprintln(out, "Goodbye! Your progress has been saved.")
			return nil
		}
	}
}
