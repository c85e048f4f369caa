package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Build-time variables, set via -ldflags.
var (
	version = "0.1.0-dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pulse",
		Short: "Pulse - interactive spiking neuron simulation",
		Long: `pulse simulates networks of spiking neurons: charge accumulates,
thresholds trip, pulses propagate along weighted connections with
per-connection transmission speed.

Networks are described in YAML and can run headless, render as a graph,
serve a live browser visualization, or back an MCP server for agents.`,
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "Config file path (default ~/.pulse/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log verbosity: info, debug, or trace")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newGraphCmd(),
		newServeCmd(),
		newMCPServerCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
