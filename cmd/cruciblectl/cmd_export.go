package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"crucible/pkg/crucible"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Copy a run's artifact directory to an export location",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, client, err := setup(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			runID, _ := cmd.Flags().GetString("run-id")
			latest, _ := cmd.Flags().GetBool("latest")
			outDir, _ := cmd.Flags().GetString("out")

			summary, err := client.Export(cmd.Context(), crucible.ExportRequest{
				RunID:  runID,
				Latest: latest,
				OutDir: outDir,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "exported run_id=%s to=%s\n", summary.RunID, summary.Directory)
			return nil
		},
	}

	cmd.Flags().String("run-id", "", "Run to export")
	cmd.Flags().Bool("latest", false, "Export the most recent run")
	cmd.Flags().String("out", "", "Destination directory")
	return cmd
}
