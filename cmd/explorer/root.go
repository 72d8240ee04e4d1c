package main

import (
	"github.com/spf13/cobra"

	"openlibrary-explorer/internal/app"
	"openlibrary-explorer/internal/config"
	"openlibrary-explorer/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:           "explorer",
	Short:         "Explore the Open Library search API from the terminal",
	SilenceUsage:  true,
	SilenceErrors: false,
}

// newApp loads configuration and wires the explorer for one command invocation.
func newApp() (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := logger.Setup(cfg.Log.Level, cfg.Log.Format, rootCmd.ErrOrStderr()); err != nil {
		return nil, err
	}
	return app.New(cfg)
}
