package main

import (
	"fmt"

	"github.com/spf13/cobra"

	redisstore "github.com/fmtdata/datafill/internal/infrastructure/db/redis"
	"github.com/fmtdata/datafill/internal/pkg/config"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the Redis created-at and name indexes",
	Long: `Rebuild datasets:by-created and the dataset-name:* claims from the
dataset:* records. Only meaningful with STORE_BACKEND=redis.`,
	Args: cobra.NoArgs,
	RunE: runReindex,
}

func init() {
	rootCmd.AddCommand(reindexCmd)
}

func runReindex(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	if a.Config.StoreBackend != config.BackendRedis {
		return fmt.Errorf("reindex needs STORE_BACKEND=%s, got %q", config.BackendRedis, a.Config.StoreBackend)
	}

	client, err := a.Redis(ctx)
	if err != nil {
		return err
	}
	n, err := redisstore.NewDatasetStore(client, a.Log).Reindex(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "reindexed %d datasets\n", n)
	return nil
}
