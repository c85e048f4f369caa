package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nvandessel/pulse/internal/mcp"
)

func newMCPServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp-server",
		Short: "Run as an MCP server over stdio",
		Long: `Expose the simulation to MCP clients: tools for creating neurons,
wiring connections, setting drive levels, firing, and snapshotting the
network. The engine runs in real time while the server is up, so DC
neurons fire and signals propagate between tool calls.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := newLogger(cfg)

			eng := buildEngine(cfg, logger)
			defer eng.Dispose()
			if network, _ := cmd.Flags().GetString("network"); network != "" {
				if err := loadNetworkInto(eng, network); err != nil {
					return err
				}
			}
			trace, tl := newTraceListener(cfg)
			defer tl.Close()
			eng.SetListener(trace)
			eng.Start()

			server, err := mcp.NewServer(&mcp.Config{
				Name:    "pulse",
				Version: version,
			}, eng)
			if err != nil {
				return fmt.Errorf("create MCP server: %w", err)
			}

			logger.Info("starting MCP server", "version", version)
			return server.Run(cmd.Context())
		},
	}

	cmd.Flags().String("network", "", "Network description to load at startup")
	return cmd
}
