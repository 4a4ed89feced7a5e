package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/studyplan/internal/calendar"
)

var (
	calStart       string
	calDryRun      bool
	calCredentials string
)

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Export study schedules to Google Calendar",
}

var calendarExportCmd = &cobra.Command{
	Use:   "export [session-id]",
	Short: "Create one calendar event per scheduled topic",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		ctx := cmd.Context()
		s, err := app.Sessions.Load(ctx, args[0])
		if err != nil {
			return err
		}

		loc := time.Local
		if tz := app.Config.Calendar.Timezone; tz != "" {
			if loc, err = time.LoadLocation(tz); err != nil {
				return fmt.Errorf("invalid calendar timezone: %w", err)
			}
		}
		start := time.Now().In(loc)
		if calStart != "" {
			if start, err = time.ParseInLocation("2006-01-02", calStart, loc); err != nil {
				return fmt.Errorf("--start must be YYYY-MM-DD: %w", err)
			}
		}
		out := cmd.OutOrStdout()

		if calDryRun {
			events, skipped := calendar.NewExporter(nil, app.Config.Calendar.CalendarID, loc).Plan(s.StudyPlan, start)
			for _, ev := range events {
				fmt.Fprintf(out, "%s  %s - %s  %s\n", ev.Start.Format("2006-01-02"), ev.Start.Format("15:04"), ev.End.Format("15:04"), ev.Summary)
			}
			printSkipped(cmd, skipped)
			return nil
		}

		creds := app.Config.Calendar.CredentialsPath
		if cmd.Flags().Changed("credentials") {
			creds = calCredentials
		}
		if creds == "" {
			return errors.New("calendar.credentials_path is not set (or pass --credentials)")
		}
		creator, err := calendar.NewGoogleCreatorFromFile(ctx, creds)
		if err != nil {
			return err
		}

		summary, err := calendar.NewExporter(creator, app.Config.Calendar.CalendarID, loc).Export(ctx, s.StudyPlan, start)
		fmt.Fprintf(out, "Created %d events.\n", len(summary.Created))
		printSkipped(cmd, summary.Skipped)
		return err
	},
}

func printSkipped(cmd *cobra.Command, skipped []calendar.Skipped) {
	for _, sk := range skipped {
		fmt.Fprintf(cmd.ErrOrStderr(), "Skipped %q: %s\n", sk.Topic, sk.Reason)
	}
}

func init() {
	RootCmd.AddCommand(calendarCmd)
	calendarCmd.AddCommand(calendarExportCmd)
	f := calendarExportCmd.Flags()
	f.StringVar(&calStart, "start", "", "Date of day 1 (YYYY-MM-DD, default today)")
	f.BoolVar(&calDryRun, "dry-run", false, "Print the events without creating them")
	f.StringVar(&calCredentials, "credentials", "", "Service account or OAuth client JSON file")
}
