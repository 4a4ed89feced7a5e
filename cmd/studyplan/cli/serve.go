package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/studyplan/internal/httpapi"
	"github.com/felixgeelhaar/studyplan/internal/intake"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the study plan web API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		orch, err := app.Orchestrator(ctx)
		if err != nil {
			return err
		}

		port := app.Config.HTTP.Port
		if cmd.Flags().Changed("port") {
			port = servePort
		}
		policy := intake.DefaultPolicy
		srv, err := httpapi.New(httpapi.Config{
			Planner:         orch,
			Sessions:        app.Sessions,
			History:         app.Memory,
			Observer:        app.Observer,
			Policy:          &policy,
			Port:            port,
			Mode:            app.Config.HTTP.Mode,
			RateLimitPerMin: app.Config.HTTP.RateLimitPerMin,
			AllowedOrigins:  app.Config.HTTP.AllowedOrigins,
		})
		if err != nil {
			return err
		}
		return srv.Run(ctx)
	},
}

func init() {
	RootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVar(&servePort, "port", 5000, "Port to listen on")
}
