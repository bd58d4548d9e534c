// Package commands holds the amazon-analyzer command line.
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"amazon-analyzer/config"
	"amazon-analyzer/utils"
)

var rootCmd = &cobra.Command{
	Use:          "amazon-analyzer",
	Short:        "amazon-analyzer scrapes product search results and analyzes them.",
	SilenceUsage: true,
}

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setup() (*config.Config, *utils.Logger) {
	cfg := config.Load()
	return cfg, utils.NewLoggerWithOutput(os.Stdout, os.Stderr, cfg.LogDebug)
}

func logProgress(logger *utils.Logger, stage string) func(float64) {
	return func(f float64) {
		logger.Debug("[%s] %3.0f%%", stage, f*100)
	}
}
