package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/studyplan/internal/session"
	"github.com/felixgeelhaar/studyplan/internal/ui"
)

var (
	listAllUsers bool
	showMarkdown bool
	showCopy     bool
)

var sessionsCmd = &cobra.Command{
	Use:     "sessions",
	Aliases: []string{"session"},
	Short:   "Browse saved study sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions of the current user, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		user := app.Config.UserID
		if listAllUsers {
			user = ""
		}
		sessions, err := app.Sessions.List(cmd.Context(), user)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.SessionList(sessions))
		return nil
	},
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show [session-id]",
	Short: "Show a saved session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		s, err := app.Sessions.Load(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		if showCopy {
			if err := copySession(cmd.Context(), app, s.SessionID); err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), ui.InfoStyle.Render("Plan copied to clipboard."))
		}
		if showMarkdown {
			fmt.Fprint(out, session.Markdown(s))
			return nil
		}

		fmt.Fprintln(out, ui.Section("Study Plan", ui.Schedule(s.StudyPlan, s.Progress)))
		if s.Notes != "" {
			fmt.Fprintln(out, ui.Section("Study Notes", s.Notes))
		}
		if s.Resources != "" {
			fmt.Fprintln(out, ui.Section("Resources", s.Resources))
		}
		fmt.Fprintln(out, ui.Stats(session.ComputeStats(s)))
		return nil
	},
}

func init() {
	RootCmd.AddCommand(sessionsCmd)
	sessionsCmd.AddCommand(sessionsListCmd, sessionsShowCmd)
	sessionsListCmd.Flags().BoolVarP(&listAllUsers, "all", "a", false, "List sessions of every user")
	sessionsShowCmd.Flags().BoolVar(&showMarkdown, "markdown", false, "Print the session as markdown")
	sessionsShowCmd.Flags().BoolVar(&showCopy, "copy", false, "Copy the session markdown to the clipboard")
}
