package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/kinship/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and reset the kinship configuration",
	Long: `Inspect and reset the kinship configuration.

A default config file is created on first run at .kinship/config.yaml
unless ~/.config/kinship/config.yaml exists or --config is given.`,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file in use",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), configPath())
		return err
	},
}

var configResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Overwrite the config file with the defaults",
	Args:  cobra.NoArgs,
	// Reset must work on a config that fails validation.
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath()
		if err := config.WriteDefaultConfig(path); err != nil {
			return err
		}
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
		return err
	},
}

var configViewsCmd = &cobra.Command{
	Use:   "views",
	Short: "List the configured views",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, v := range cfg.GetViews() {
			from := v.From
			if from == "" {
				from = "."
			}
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", v.Name, from, v.Query); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(configPathCmd, configResetCmd, configViewsCmd)
	rootCmd.AddCommand(configCmd)
}
