package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/nvandessel/pulse/internal/visualization"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [network.yaml]",
		Short: "Run the simulation with a live browser visualization",
		Long: `Start the simulation and serve a local web page that renders the
network live over a websocket: charge levels, firing pulses, and
travelling signals. With no network file the canvas starts empty and
the network is built through the MCP tools or a second process.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			noOpen, _ := cmd.Flags().GetBool("no-open")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := newLogger(cfg)

			eng := buildEngine(cfg, logger)
			defer eng.Dispose()
			if len(args) == 1 {
				if err := loadNetworkInto(eng, args[0]); err != nil {
					return err
				}
			}

			srv := visualization.NewServer(eng, logger)
			trace, tl := newTraceListener(cfg)
			defer tl.Close()
			eng.SetListener(fanout{srv, trace})
			eng.Start()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sigChan := make(chan os.Signal, 1)
			notifySignals(sigChan)
			go func() {
				<-sigChan
				cancel()
			}()

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.ListenAndServe(ctx)
			}()

			// Wait for the listener to bind before announcing the URL.
			var url string
			for i := 0; i < 50; i++ {
				if addr := srv.Addr(); addr != "" {
					url = "http://" + addr
					break
				}
				time.Sleep(10 * time.Millisecond)
			}
			if url != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "serving visualization at %s\n", url)
				if !noOpen {
					if err := visualization.OpenBrowser(url); err != nil {
						logger.Warn("could not open browser", "error", err)
					}
				}
			}

			err = <-errCh
			eng.Stop()
			return err
		},
	}

	cmd.Flags().Bool("no-open", false, "Don't open the browser automatically")
	return cmd
}
