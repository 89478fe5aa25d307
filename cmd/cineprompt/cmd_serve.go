package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shouni/cineprompt-kit/pkg/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long:  `Serve the scene editor API (frames, options, generation and history) over HTTP.`,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	h, err := server.NewHandler(a.session, a.history, a.decoder,
		server.WithMaxUploadBytes(cfg.MaxUploadBytes))
	if err != nil {
		return err
	}
	return server.New(cfg.Addr(), server.NewRouter(h), cfg.ShutdownTimeout).Run(ctx)
}
