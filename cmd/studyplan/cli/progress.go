package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/studyplan/internal/ui"
)

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Track completed topics of a session",
}

var progressMarkCmd = &cobra.Command{
	Use:   "mark [session-id] [topic]",
	Short: "Mark a topic as completed",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		orch, err := app.Tracker()
		if err != nil {
			return err
		}
		if err := orch.MarkProgress(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		_, stats, err := orch.Progress(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Marked %q as complete.\n%s\n", args[1], ui.Stats(stats))
		return nil
	},
}

var progressUnmarkCmd = &cobra.Command{
	Use:   "unmark [session-id] [topic]",
	Short: "Mark a topic as not completed",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		orch, err := app.Tracker()
		if err != nil {
			return err
		}
		removed, err := orch.UnmarkProgress(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		if !removed {
			fmt.Fprintf(cmd.OutOrStdout(), "%q was not marked as complete.\n", args[1])
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Marked %q as incomplete.\n", args[1])
		return nil
	},
}

var progressShowCmd = &cobra.Command{
	Use:   "show [session-id]",
	Short: "Show completion progress of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		orch, err := app.Tracker()
		if err != nil {
			return err
		}
		s, _, err := orch.Progress(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Progress(s))
		return nil
	},
}

func init() {
	RootCmd.AddCommand(progressCmd)
	progressCmd.AddCommand(progressMarkCmd, progressUnmarkCmd, progressShowCmd)
}
