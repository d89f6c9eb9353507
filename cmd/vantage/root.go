package main

import (
	"github.com/spf13/cobra"

	"github.com/pthm/vantage/internal/cli"
	"github.com/pthm/vantage/internal/debug"
)

var (
	// Global state set during PersistentPreRunE
	cfg        *cli.Config
	configPath string

	// Persistent flags
	cfgFile   string
	modelFile string
	verbose   int
)

var rootCmd = &cobra.Command{
	Use:   "vantage",
	Short: "Composable SQL tables from declarative models",
	Long: `vantage - composable SQL tables from declarative models

Vantage loads table definitions from a YAML model, composes conditions,
joins and relation traversals into queries, and renders or runs them.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		debug.Init(verbose > 0)

		// Skip config loading for help/completion/version commands
		if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "version" {
			return nil
		}

		if err := cli.LoadDotEnv(); err != nil {
			return cli.ConfigError("loading environment", err)
		}

		var err error
		cfg, configPath, err = cli.LoadConfig(cfgFile)
		if err != nil {
			return cli.ConfigError("loading configuration", err)
		}
		if modelFile != "" {
			cfg.Model = modelFile
		}
		debug.Debug("configuration loaded", "path", configPath, "model", cfg.Model, "driver", cfg.Database.Driver)

		return nil
	},
	SilenceUsage:  true, // Don't show usage on errors
	SilenceErrors: true, // We handle errors ourselves
}

// Command group IDs
const (
	groupData    = "data"
	groupUtility = "utility"
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: auto-discover vantage.yaml)")
	rootCmd.PersistentFlags().StringVarP(&modelFile, "model", "m", "", "model file (overrides config)")
	rootCmd.PersistentFlags().CountVarP(&verbose, "verbose", "v", "enable debug logging")

	rootCmd.AddGroup(
		&cobra.Group{ID: groupData, Title: "Data:"},
		&cobra.Group{ID: groupUtility, Title: "Utility:"},
	)

	renderCmd.GroupID = groupData
	queryCmd.GroupID = groupData
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(queryCmd)

	configCmd.GroupID = groupUtility
	doctorCmd.GroupID = groupUtility
	versionCmd.GroupID = groupUtility
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		cli.ExitWithError(err)
	}
}

// resolveBool returns true if any of the provided values is true.
// Used for boolean flags where any true value should win.
func resolveBool(values ...bool) bool {
	for _, v := range values {
		if v {
			return true
		}
	}
	return false
}
