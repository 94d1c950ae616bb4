package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/contre95/bandpass/src/features/config"
	"github.com/contre95/bandpass/src/features/logging"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "bandpass",
	Short: "Bandpass is a personal music player with a parametric equalizer.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd, args)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the YAML configuration file")
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig loads the configuration and installs the default logger.
func loadConfig() (*config.Manager, error) {
	cfgManager, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	slog.SetDefault(logging.SetupLogger(cfgManager))
	return cfgManager, nil
}
