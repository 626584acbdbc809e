package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"crucible/pkg/crucible"
)

func newWalkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "walk",
		Short: "Run Metropolis composition walks scored by an oracle model",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, client, err := setup(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			oraclePath, _ := cmd.Flags().GetString("oracle")
			if oraclePath == "" {
				oraclePath = cfg.Oracle.Path
			}
			formulas, _ := cmd.Flags().GetStringSlice("seed-formula")
			steps, _ := cmd.Flags().GetInt("steps")
			temp, _ := cmd.Flags().GetFloat64("walk-temp")
			seed, _ := cmd.Flags().GetInt64("seed")
			label, _ := cmd.Flags().GetString("label")

			summary, err := client.Walk(cmd.Context(), crucible.WalkRequest{
				OracleModel:  oraclePath,
				SeedFormulas: formulas,
				Steps:        steps,
				Temperature:  temp,
				Seed:         seed,
				Label:        label,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "walk completed run_id=%s oracle=%s target=%s seed=%d\n",
				summary.RunID, summary.Oracle, summary.Target, seed)
			for _, ch := range summary.Champions {
				fmt.Fprintf(out, "seed=%d start=%s final=%s best=%s best_score=%.6f accepted=%d/%d\n",
					ch.Seed, ch.StartFormula, ch.FinalFormula, ch.BestFormula, ch.BestScore, ch.Accepted, ch.Steps)
			}
			fmt.Fprintf(out, "best formula=%s score=%.6f\n", summary.BestFormula, summary.BestScore)
			fmt.Fprintf(out, "artifacts_dir=%s\n", summary.ArtifactsDir)
			return nil
		},
	}

	cmd.Flags().String("oracle", "", "Path to an oracle model JSON artifact")
	cmd.Flags().StringSlice("seed-formula", nil, "Starting formulas, one walk per formula")
	cmd.Flags().Int("steps", 0, "Steps per walk")
	cmd.Flags().Float64("walk-temp", 0, "Metropolis temperature")
	cmd.Flags().Int64("seed", 0, "Base random seed")
	cmd.Flags().String("label", "", "Optional run label")
	return cmd
}
