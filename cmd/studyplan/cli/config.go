package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/studyplan/internal/credential"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage stored settings such as provider API keys",
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Example: `  studyplan config set gemini.api_key AIza...
  studyplan config set ollama.base_url http://localhost:11434`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		stored, err := app.Credentials.Protect(key, value)
		if err != nil {
			return fmt.Errorf("failed to encrypt %s: %w", key, err)
		}
		if err := app.Store.SetConfig(cmd.Context(), key, stored); err != nil {
			return fmt.Errorf("failed to set config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Configuration saved: %s\n", key)
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Get a configuration value; secrets are masked",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]

		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		val := app.secret(cmd.Context(), key)
		out := cmd.OutOrStdout()
		switch {
		case val == "":
			fmt.Fprintln(out, "(not set)")
		case credential.IsSecretKey(key):
			fmt.Fprintln(out, credential.MaskSecret(val))
		default:
			fmt.Fprintln(out, val)
		}
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored configuration keys",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		all, err := app.Store.ListConfig(cmd.Context())
		if err != nil {
			return err
		}
		keys := make([]string, 0, len(all))
		for k := range all {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			v := app.secret(cmd.Context(), k)
			if credential.IsSecretKey(k) {
				v = credential.MaskSecret(v)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", k, v)
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configSetCmd, configGetCmd, configListCmd)
}
