// Package cli is the cobra command tree for the logisim server binary.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	host       string
	port       int
	logLevel   string
)

// NewRootCommand creates the root command for the CLI
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "logisim-server",
		Short: "Tick-driven multi-agent logistics simulator",
		Long: `logisim-server hosts a shared road network where autonomous truck
agents transport packages between sites under a central broker.
Clients steer the simulation over a WebSocket action/signal protocol.

Examples:
  logisim-server serve --host 0.0.0.0 --port 8765
  logisim-server map create --rows 8 --cols 8 --sites 5 --out map.json
  logisim-server version`,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&host, "host", "", "Listen host (overrides config)")
	rootCmd.PersistentFlags().IntVar(&port, "port", 0, "Listen port (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")

	rootCmd.AddCommand(NewServeCommand())
	rootCmd.AddCommand(NewMapCommand())
	rootCmd.AddCommand(NewVersionCommand())

	return rootCmd
}

// Execute runs the root command. Exit code 0 on clean shutdown, 1 on error.
func Execute() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
