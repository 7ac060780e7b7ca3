package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fmtdata/datafill/pkg/datafill"
)

var fillCmd = &cobra.Command{
	Use:   "fill <tree.json>",
	Short: "Fill d-<name> text nodes of an exported node tree",
	Long: `Read a node tree exported from the design tool, fill every text node
named d-<dataset> with a random value and write the tree back out.

Datasets come from the API (--api) or from a public-map JSON file
(--datasets). Use "-" to read the tree from stdin.

Examples:
  datafillctl fill card.json --api http://localhost:3000/api/v1
  datafillctl fill - --datasets public.json --seed 42 -o filled.json`,
	Args: cobra.ExactArgs(1),
	RunE: runFill,
}

func init() {
	fillCmd.Flags().String("api", "", "API base URL including the version prefix")
	fillCmd.Flags().String("datasets", "", "public dataset map JSON file")
	fillCmd.Flags().Uint64("seed", 0, "random seed for reproducible output (0 picks one)")
	fillCmd.Flags().StringP("output", "o", "-", "output file")
	fillCmd.MarkFlagsOneRequired("api", "datasets")
	fillCmd.MarkFlagsMutuallyExclusive("api", "datasets")
	rootCmd.AddCommand(fillCmd)
}

func runFill(cmd *cobra.Command, args []string) error {
	apiURL, _ := cmd.Flags().GetString("api")
	datasetsFile, _ := cmd.Flags().GetString("datasets")
	seed, _ := cmd.Flags().GetUint64("seed")
	output, _ := cmd.Flags().GetString("output")

	_, log, err := setup(cmd)
	if err != nil {
		return err
	}

	var root datafill.Node
	if err := readJSON(cmd.InOrStdin(), args[0], &root); err != nil {
		return fmt.Errorf("read tree: %w", err)
	}

	var ds datafill.Datasets
	if apiURL != "" {
		ds, err = datafill.NewClient(apiURL, datafill.WithLogger(log)).FetchPublic(cmd.Context())
		if err != nil {
			return err
		}
	} else if err := readJSON(cmd.InOrStdin(), datasetsFile, &ds); err != nil {
		return fmt.Errorf("read datasets: %w", err)
	}

	var rng *rand.Rand
	if seed != 0 {
		rng = rand.New(rand.NewPCG(seed, seed))
	}

	report, err := datafill.Fill(&root, ds, rng)
	if err != nil {
		return err
	}

	if err := writeJSON(cmd.OutOrStdout(), output, &root); err != nil {
		return err
	}

	errOut := cmd.ErrOrStderr()
	if report.Filled == 0 {
		fmt.Fprintf(errOut, "no matching text fields; use names like: %s\n",
			strings.Join(datafill.Placeholders(ds), ", "))
	} else {
		fmt.Fprintf(errOut, "filled %d text fields\n", report.Filled)
	}
	if len(report.Unknown) > 0 {
		fmt.Fprintf(errOut, "no dataset for: %s\n", strings.Join(report.Unknown, ", "))
	}
	return nil
}

func readJSON(stdin io.Reader, path string, v any) error {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	return json.NewDecoder(r).Decode(v)
}

func writeJSON(stdout io.Writer, path string, v any) error {
	w := stdout
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
