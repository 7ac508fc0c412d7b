package main

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/sweetpotato0/agri-advisor/app"
	"github.com/sweetpotato0/agri-advisor/config"
)

var (
	configPath string
	language   string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "agri-advisor",
	Short: "Multilingual agricultural advisory assistant",
	Long: `agri-advisor answers questions about crop prices, weather, soil, pests
and government schemes. Answers are grounded in retrieved records, carry a
confidence score and say plainly when current data is missing.`,
	Version:       app.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = c
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVarP(&language, "lang", "l", "auto", "answer language (auto, en, hi, mr, pa, ...)")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
}

// newApp builds the application from the loaded config.
func newApp(ctx context.Context, opts app.Options) (*app.App, error) {
	return app.New(ctx, cfg, opts)
}
