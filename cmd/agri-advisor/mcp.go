package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/sweetpotato0/agri-advisor/app"
	"github.com/sweetpotato0/agri-advisor/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run as an MCP tool server on stdin/stdout",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// stdout carries the protocol.
		a, err := newApp(ctx, app.Options{LogWriter: os.Stderr})
		if err != nil {
			return err
		}
		defer a.Close()

		srv := mcp.NewServer(mcp.ServerInfo{
			Name:    "agri-advisor",
			Title:   "Agricultural advisory",
			Version: app.Version,
		}, a.Service, a.Detector)
		return mcp.Run(ctx, srv)
	},
}
