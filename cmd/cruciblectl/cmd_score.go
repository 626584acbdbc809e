package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"crucible/pkg/crucible"
)

func newScoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a single formula with an oracle model",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			oraclePath, _ := cmd.Flags().GetString("oracle")
			if oraclePath == "" {
				oraclePath = cfg.Oracle.Path
			}
			formula, _ := cmd.Flags().GetString("formula")

			client, err := crucible.New(crucible.Options{StoreKind: "memory"})
			if err != nil {
				return err
			}
			defer client.Close()

			summary, err := client.Score(cmd.Context(), crucible.ScoreRequest{
				OracleModel: oraclePath,
				Formula:     formula,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "oracle=%s target=%s formula=%s score=%.6f\n",
				summary.Oracle, summary.Target, summary.Formula, summary.Score)
			return nil
		},
	}

	cmd.Flags().String("oracle", "", "Path to an oracle model JSON artifact")
	cmd.Flags().String("formula", "", "Formula to score")
	return cmd
}
