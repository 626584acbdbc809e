package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"crucible/pkg/crucible"
)

func newDopeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dope",
		Short: "Optimize halide dopant loadings against the conductivity response",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, client, err := setup(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			iterations, _ := cmd.Flags().GetInt("iterations")
			seed, _ := cmd.Flags().GetInt64("seed")
			seedPoints, _ := cmd.Flags().GetInt("seed-points")
			poolSize, _ := cmd.Flags().GetInt("pool-size")
			label, _ := cmd.Flags().GetString("label")

			var noiseStd *float64
			if cmd.Flags().Changed("noise") {
				v, _ := cmd.Flags().GetFloat64("noise")
				noiseStd = &v
			}

			summary, err := client.Dope(cmd.Context(), crucible.DopeRequest{
				Iterations: iterations,
				Seed:       seed,
				NoiseStd:   noiseStd,
				SeedPoints: seedPoints,
				PoolSize:   poolSize,
				Label:      label,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "doping completed run_id=%s iterations=%d seed=%d\n",
				summary.RunID, summary.Iterations, seed)
			for _, obs := range summary.Observations {
				fmt.Fprintf(out, "observation iter=%d cl=%.4f br=%.4f i=%.4f response=%.6f note=%s\n",
					obs.Iteration, obs.Cl, obs.Br, obs.I, obs.Response, obs.Note)
			}
			fmt.Fprintf(out, "best cl=%.4f br=%.4f i=%.4f response=%.6f\n",
				summary.Best.Cl, summary.Best.Br, summary.Best.I, summary.BestResponse)
			v := summary.Validation
			fmt.Fprintf(out, "validation formula=%q phase=%s li_remaining=%.4f strain_pct=%.4f stable=%t\n",
				v.Formula, v.Phase, v.LiRemaining, v.VegardStrainPct, v.Stable)
			for _, finding := range v.Findings {
				fmt.Fprintf(out, "finding=%s\n", finding)
			}
			fmt.Fprintf(out, "artifacts_dir=%s\n", summary.ArtifactsDir)
			return nil
		},
	}

	cmd.Flags().Int("iterations", 0, "Optimization iterations after seeding")
	cmd.Flags().Int64("seed", 0, "Random seed")
	cmd.Flags().Float64("noise", 0, "Measurement noise standard deviation")
	cmd.Flags().Int("seed-points", 0, "Initial corner loadings to evaluate")
	cmd.Flags().Int("pool-size", 0, "Candidate pool size per iteration")
	cmd.Flags().String("label", "", "Optional run label")
	return cmd
}
