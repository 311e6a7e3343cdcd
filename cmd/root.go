// Package cmd defines the CLI commands for the harvester executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pcrawley/contact-harvester/internal/config"
	"github.com/pcrawley/contact-harvester/internal/logging"
)

var cfgFile string

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "harvester",
		Short: "Extracts public contact information for lists of companies",
		Long: `harvester resolves each company to its official website, politely
crawls a handful of contact-relevant pages, and falls back to public
directories when the site under-delivers. Results carry provenance and a
confidence score.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./harvester.yaml)")
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newRunCmd())
	return cmd
}

// loadConfigAndLogger is shared setup for every subcommand.
func loadConfigAndLogger() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, nil, fmt.Errorf("invalid config: %w", err)
	}
	logger, err := logging.New(cfg.Logging.Development, cfg.Logging.Level)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logger, nil
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
