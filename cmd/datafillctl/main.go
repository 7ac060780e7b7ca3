// Command datafillctl runs operator tasks against the configured dataset
// store: seeding, migrating the legacy Redis layout, rebuilding the Redis
// indexes and filling exported node trees.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/fmtdata/datafill/internal/app"
	"github.com/fmtdata/datafill/internal/pkg/config"
	"github.com/fmtdata/datafill/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:   "datafillctl",
	Short: "Operator tools for the datafill API",
	Long: `datafillctl works directly against the backing store selected by
STORE_BACKEND, using the same environment variables as the API server.

Examples:
  datafillctl seed --reset
  datafillctl migrate --workers 4
  datafillctl reindex
  datafillctl fill frame.json --api http://localhost:3000/api/v1`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "", "override LOG_LEVEL")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads configuration and initialises the logger for a subcommand.
func setup(cmd *cobra.Command) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Logger{}, err
	}
	level := cfg.LogLevel
	if override, _ := cmd.Flags().GetString("log-level"); override != "" {
		level = override
	}
	log := logger.Init(logger.Options{
		Level:   level,
		Pretty:  true,
		Output:  os.Stderr,
		Service: "datafillctl",
	})
	return cfg, log.With().Str("command", cmd.Name()).Logger(), nil
}

// openApp is setup followed by app.Open. The caller must Close the app.
func openApp(cmd *cobra.Command) (*app.App, error) {
	cfg, log, err := setup(cmd)
	if err != nil {
		return nil, err
	}
	return app.Open(cmd.Context(), cfg, log)
}
