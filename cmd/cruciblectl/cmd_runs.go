package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"crucible/pkg/crucible"
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent runs from the artifact index",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, client, err := setup(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			limit, _ := cmd.Flags().GetInt("limit")
			items, err := client.Runs(cmd.Context(), crucible.RunsRequest{Limit: limit})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintln(out, "no runs found")
				return nil
			}
			for _, item := range items {
				fmt.Fprintf(out, "run_id=%s kind=%s created_at=%s seed=%d best=%.6f label=%s\n",
					item.RunID, item.Kind, item.CreatedAtUTC, item.Seed, item.Best, item.Label)
			}
			return nil
		},
	}

	cmd.Flags().Int("limit", 0, "Maximum entries to list")
	return cmd
}
