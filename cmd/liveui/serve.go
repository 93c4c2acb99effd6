package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vango-dev/liveui/internal/config"
	"github.com/vango-dev/liveui/internal/live"
)

func serveCmd(load func() (*config.Config, error)) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Stream a live list over WebSocket",
		Long: `Serve a list that edits itself on every tick. Each WebSocket
connection on /ws gets its own list and receives one patch frame per
reconcile pass. /metrics exposes Prometheus metrics and /healthz reports
liveness.

Examples:
  liveui serve
  liveui serve --addr :9000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Serve.Addr = addr
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger := cfg.NewLogger(os.Stderr)
			success("serving on %s", cfg.Serve.Addr)
			info("ws://%s/ws", cfg.Serve.Addr)
			return live.New(cfg, logger).ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from liveui.json)")
	return cmd
}
