package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tfkr-ae/trustreg"
)

var storeCmd = &cobra.Command{
	Use:   "store [DRIVER PATH]",
	Short: "Show or change the settings store",
	Long: `Show the configured settings store, or switch to another one.

Relative paths are resolved against the config directory.

Examples:
  trustreg store
  trustreg store xml NuGet.Config
  trustreg store sqlite trustreg.db`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 0 && len(args) != 2 {
			return fmt.Errorf("accepts 0 or 2 arg(s), received %d", len(args))
		}
		return nil
	},
	ValidArgs: []string{trustreg.DriverSQLite, trustreg.DriverXML},
	RunE:      runStore,
}

func runStore(cmd *cobra.Command, args []string) error {
	configDir, _ := cmd.Flags().GetString("config-dir")

	cfg, err := trustreg.LoadConfig(configDir)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	if len(args) == 2 {
		if err := cfg.SetStore(strings.ToLower(args[0]), args[1]); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Driver: %s\n", cfg.Store.Driver)
	fmt.Fprintf(out, "Path:   %s\n", cfg.StorePath())
	return nil
}
