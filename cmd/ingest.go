/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"airwatch/internal/errs"
)

// ingestCmd represents the ingest command group
var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest readings from local files",
}

// ingestFileCmd loads a .json or .csv readings file. The source tag is
// forced to "upload" regardless of what the file claims.
var ingestFileCmd = &cobra.Command{
	Use:   "file <path>",
	Short: "Ingest one readings file",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, deps appDeps) error {
		path := cmd.Flags().Args()[0]

		count, err := deps.Ingest.IngestFile(cmd.Context(), path)
		if err != nil {
			return errs.Wrapf(err, "ingest file %q", path)
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "ingested %d readings from %s\n", count, path); err != nil {
			return errs.Wrap(err, "write ingest output")
		}
		return nil
	}),
}

func init() {
	ingestCmd.AddCommand(ingestFileCmd)
	rootCmd.AddCommand(ingestCmd)
}
