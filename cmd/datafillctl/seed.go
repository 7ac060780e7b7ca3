package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fmtdata/datafill/internal/core/service"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Write the sample datasets",
	Long: `Create the sample datasets (first-names, last-names, emails, cities,
companies, colors). Existing names are skipped unless --reset is given, which
deletes every dataset first.`,
	Args: cobra.NoArgs,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().Bool("reset", false, "delete all existing datasets first")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, _ []string) error {
	reset, _ := cmd.Flags().GetBool("reset")

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close(cmd.Context())

	report, err := service.NewSeedService(a.Datasets, a.Log).Seed(cmd.Context(), reset)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "created %d, skipped %d, deleted %d\n",
		report.Created, report.Skipped, report.Deleted)
	return nil
}
