package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/sweetpotato0/agri-advisor/app"
	"github.com/sweetpotato0/agri-advisor/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the advisory API over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, app.Options{RateLimit: true, LogWriter: cmd.ErrOrStderr()})
		if err != nil {
			return err
		}
		defer a.Close()

		addr := cfg.Server.Addr
		if serveAddr != "" {
			addr = serveAddr
		}
		api := server.NewAPIServer(a.Service, server.Config{
			Addr:           addr,
			Version:        app.Version,
			MaxConcurrency: cfg.Server.MaxConcurrency,
			Cache:          a.Service.Cache(),
		})

		errCh := make(chan error, 1)
		go func() { errCh <- api.Start() }()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}
		a.Logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return api.Stop(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
}
