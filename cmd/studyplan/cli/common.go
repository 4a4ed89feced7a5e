package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/studyplan/internal/orchestrate"
	"github.com/felixgeelhaar/studyplan/internal/provider"
	"github.com/felixgeelhaar/studyplan/internal/session"
	"github.com/felixgeelhaar/studyplan/internal/ui"
	"github.com/felixgeelhaar/studyplan/internal/ui/tui"
)

// errorMessage turns err into the line printed before exiting.
func errorMessage(err error) string {
	var ge *provider.GenerationError
	switch {
	case errors.As(err, &ge):
		return ui.ErrorStyle.Render(fmt.Sprintf("Error: %v", err)) +
			"\nPlease check your provider settings and try again."
	case errors.Is(err, session.ErrSessionNotFound):
		return ui.ErrorStyle.Render(fmt.Sprintf("Error: %v", err)) +
			"\nRun `studyplan sessions list` to see available sessions."
	case errors.Is(err, ui.ErrAborted):
		return "Cancelled."
	}
	return ui.ErrorStyle.Render(fmt.Sprintf("Error: %v", err))
}

// isTerminal reports whether r is an interactive character device.
func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// newPrompter picks the bubbletea prompter on a terminal and plain line
// prompts otherwise.
func newPrompter(cmd *cobra.Command) ui.Prompter {
	in := cmd.InOrStdin()
	if isTerminal(in) {
		return tui.NewPrompter(in, cmd.OutOrStdout())
	}
	return ui.NewLinePrompter(in, cmd.OutOrStdout())
}

func agentNames() []string {
	return []string{
		string(orchestrate.AgentStudyPlan),
		string(orchestrate.AgentNotes),
		string(orchestrate.AgentResources),
	}
}
