package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configFile   string
	dataDir      string
	userID       string
	providerName string
	modelName    string
	verbose      bool
	jsonLogs     bool
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "studyplan",
	Short: "Personalized study plans from a syllabus",
	Long: `studyplan turns a syllabus into a day-by-day schedule, study notes and a
curated resource list, then tracks which topics you have completed.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorMessage(err))
		os.Exit(1)
	}
}

func init() {
	pf := RootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "Config file (default: studyplan.yaml in ., ./config or ~/.studyplan)")
	pf.StringVar(&dataDir, "data-dir", "", "Directory for sessions, notes and the memory bank")
	pf.StringVarP(&userID, "user", "u", "", "User ID that owns new sessions")
	pf.StringVarP(&providerName, "provider", "p", "", "Model provider (gemini, openai, ollama, anthropic, cli, plugin, stub)")
	pf.StringVarP(&modelName, "model", "m", "", "Model name (default depends on provider)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	pf.BoolVar(&jsonLogs, "json", false, "Write logs as JSON")
}
