// Package cli provides the trustreg command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/tfkr-ae/trustreg"
)

// ErrNoSuchSource is returned when a command names a trusted source that is not registered.
var ErrNoSuchSource = errors.New("no such trusted source")

var rootCmd = &cobra.Command{
	Use:   "trustreg",
	Short: "Manage trusted package sources and their signing certificates",
	Long: `Manage trusted package sources and their signing certificates.

Trusted sources are kept in the settings store selected in config.yaml under the
config directory (SQLite by default, or a NuGet.Config style XML file).`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	configDir, err := trustreg.DefaultConfigDir()
	if err != nil {
		configDir = ".trustreg"
	}

	rootCmd.PersistentFlags().String("config-dir", configDir, "Configuration directory")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log debug output to stderr")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(setServiceIndexCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(storeCmd)
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// openRegistry loads the configuration and opens a registry over the configured store.
// The returned closer releases the store.
func openRegistry(cmd *cobra.Command) (*trustreg.Registry, io.Closer, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")

	cfg, err := trustreg.LoadConfig(configDir)
	if err != nil {
		return nil, nil, fmt.Errorf("loading configuration: %w", err)
	}

	settings, closer, err := cfg.OpenSettings()
	if err != nil {
		return nil, nil, err
	}

	registry, err := trustreg.New(
		trustreg.WithSettings(settings),
		trustreg.WithLogger(newLogger(cmd)),
	)
	if err != nil {
		closer.Close()
		return nil, nil, fmt.Errorf("creating registry: %w", err)
	}
	return registry, closer, nil
}
