package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/studyplan/internal/ui"
)

var notesTopic string

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the current user's preferences and completed topics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		h, err := app.Memory.History(cmd.Context(), app.Config.UserID)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		var prefs strings.Builder
		for _, p := range h.Preferences {
			fmt.Fprintf(&prefs, "%s  (%s)\n", firstLineOf(p.Topic), p.Difficulty)
		}
		if prefs.Len() == 0 {
			prefs.WriteString("No plans generated yet.")
		}
		fmt.Fprintln(out, ui.Section("Requested plans", prefs.String()))

		var done strings.Builder
		for _, c := range h.CompletedTopics {
			fmt.Fprintf(&done, "✓ %s  %s\n", c.Topic, c.CompletedAt.Local().Format("2006-01-02 15:04"))
		}
		if done.Len() == 0 {
			done.WriteString("No topics completed yet.")
		}
		fmt.Fprintln(out, ui.Section("Completed topics", done.String()))
		if d := h.PreferredDifficulty(); d != "" {
			fmt.Fprintf(out, "Preferred difficulty: %s\n", d)
		}
		return nil
	},
}

var notesCmd = &cobra.Command{
	Use:   "notes",
	Short: "Browse saved study notes",
}

var notesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved notes of the current user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		list, err := app.Notes.List(cmd.Context(), app.Config.UserID, notesTopic)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(list) == 0 {
			fmt.Fprintln(out, "No notes saved.")
			return nil
		}
		for _, n := range list {
			fmt.Fprintf(out, "%s  %s\n    %s\n", n.CreatedAt.Local().Format("2006-01-02 15:04"), firstLineOf(n.Topic), n.Path)
		}
		return nil
	},
}

func firstLineOf(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	if r := []rune(line); len(r) > 60 {
		line = string(r[:57]) + "..."
	}
	return line
}

func init() {
	RootCmd.AddCommand(historyCmd, notesCmd)
	notesCmd.AddCommand(notesListCmd)
	notesListCmd.Flags().StringVar(&notesTopic, "topic", "", "Only list notes for this topic")
}
