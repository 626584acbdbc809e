// Command cruciblectl drives materials discovery experiments from the
// terminal: composition walks, synthesis episodes, protocol benchmarks,
// dopant optimization, and run artifact management.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"crucible/internal/config"
	"crucible/internal/logging"
	"crucible/pkg/crucible"
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "cruciblectl",
		Short:         "Explore candidate materials with simulated walks, synthesis kinetics, and dopant tuning",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("store", "", "Store backend: memory or sqlite")
	rootCmd.PersistentFlags().String("db", "", "SQLite database path")
	rootCmd.PersistentFlags().String("results-dir", "", "Directory for per-run artifacts")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: text or json")
	rootCmd.PersistentFlags().String("preset-file", "", "YAML file replacing the built-in simulator presets")

	rootCmd.AddCommand(
		newWalkCmd(),
		newSynthCmd(),
		newBenchCmd(),
		newDopeCmd(),
		newValidateCmd(),
		newScoreCmd(),
		newPresetsCmd(),
		newRunsCmd(),
		newExportCmd(),
		newInitCmd(),
		newResetCmd(),
	)
	return rootCmd
}

// resolveConfig layers flag overrides on top of config.Load's
// defaults -> file -> environment chain, then wires the global logger.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("store") {
		cfg.Store.Kind, _ = cmd.Flags().GetString("store")
	}
	if cmd.Flags().Changed("db") {
		cfg.Store.Path, _ = cmd.Flags().GetString("db")
	}
	if cmd.Flags().Changed("results-dir") {
		cfg.Results.Dir, _ = cmd.Flags().GetString("results-dir")
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level, _ = cmd.Flags().GetString("log-level")
	}
	if cmd.Flags().Changed("log-format") {
		cfg.Logging.Format, _ = cmd.Flags().GetString("log-format")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	logging.Init(level, cfg.Logging.Format)
	return cfg, nil
}

// setup resolves configuration and opens a client. Callers own Close.
func setup(cmd *cobra.Command) (*config.Config, *crucible.Client, error) {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	presetFile, _ := cmd.Flags().GetString("preset-file")
	client, err := crucible.New(crucible.Options{
		StoreKind:  cfg.Store.Kind,
		DBPath:     cfg.Store.Path,
		ResultsDir: cfg.Results.Dir,
		PresetFile: presetFile,
	})
	if err != nil {
		return nil, nil, err
	}
	return cfg, client, nil
}

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize the configured store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, client, err := setup(cmd)
			if err != nil {
				return err
			}
			defer client.Close()
			if err := client.Init(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "initialized store=%s\n", cfg.Store.Kind)
			return nil
		},
	}
}

func newResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Delete all persisted runs from the configured store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, client, err := setup(cmd)
			if err != nil {
				return err
			}
			defer client.Close()
			if err := client.Reset(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "reset store=%s\n", cfg.Store.Kind)
			return nil
		},
	}
}
