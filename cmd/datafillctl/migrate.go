package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fmtdata/datafill/internal/core/domain"
	"github.com/fmtdata/datafill/internal/core/service"
	redisstore "github.com/fmtdata/datafill/internal/infrastructure/db/redis"
	"github.com/fmtdata/datafill/internal/infrastructure/queue"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Import legacy Redis datasets into the active store",
	Long: `Scan the Redis instance configured by REDIS_* for datasets in the legacy
name-keyed layout (dataset:<name> holding {description, data}) and create them
in the store selected by STORE_BACKEND. The category is inferred from the
name. Names that already exist are skipped.`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

func init() {
	migrateCmd.Flags().Int("workers", 4, "number of import workers")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	workers, _ := cmd.Flags().GetInt("workers")
	ctx := cmd.Context()

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	client, err := a.Redis(ctx)
	if err != nil {
		return fmt.Errorf("legacy source: %w", err)
	}

	importer := service.NewMigrationService(a.Datasets, a.Log)
	dispatcher := queue.NewDispatcher(workers, importer, a.Log)
	dispatcher.Start(ctx)

	undecodable, scanErr := redisstore.NewLegacyScanner(client, a.Log).
		Scan(ctx, func(legacy domain.LegacyDataset) error {
			return dispatcher.Enqueue(ctx, legacy)
		})
	failed := dispatcher.Close()

	report := importer.Report()
	skipped := report.Skipped + int64(undecodable)
	a.Log.Info().
		Int64("migrated", report.Migrated).
		Int64("skipped", skipped).
		Int("failed", failed).
		Msg("migration finished")
	fmt.Fprintf(cmd.OutOrStdout(), "migrated %d, skipped %d\n", report.Migrated, skipped)

	if scanErr != nil {
		return scanErr
	}
	if failed > 0 {
		return errors.New("some datasets could not be imported, see log")
	}
	return nil
}
