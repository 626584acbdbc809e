package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"crucible/pkg/crucible"
)

func newBenchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark control protocols over repeated episodes",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, client, err := setup(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			preset, _ := cmd.Flags().GetString("preset")
			protocols, _ := cmd.Flags().GetStringSlice("protocols")
			episodes, _ := cmd.Flags().GetInt("episodes")
			seed, _ := cmd.Flags().GetInt64("seed")
			label, _ := cmd.Flags().GetString("label")

			var startTemp *float64
			if cmd.Flags().Changed("start-temp") {
				v, _ := cmd.Flags().GetFloat64("start-temp")
				startTemp = &v
			}

			summary, err := client.Bench(cmd.Context(), crucible.BenchRequest{
				Preset:    preset,
				Protocols: protocols,
				Episodes:  episodes,
				Seed:      seed,
				StartTemp: startTemp,
				Label:     label,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "benchmark completed run_id=%s preset=%s episodes=%d winner=%s\n",
				summary.RunID, summary.Preset, summary.Episodes, summary.Winner)
			for _, ps := range summary.Protocols {
				fmt.Fprintf(out, "protocol=%s mean_reward=%.6f std_reward=%.6f min=%.6f max=%.6f mean_final_yield=%.6f\n",
					ps.Protocol, ps.MeanReward, ps.StdReward, ps.MinReward, ps.MaxReward, ps.MeanFinalYield)
			}
			fmt.Fprintf(out, "artifacts_dir=%s\n", summary.ArtifactsDir)
			return nil
		},
	}

	cmd.Flags().String("preset", "", "Simulator preset name")
	cmd.Flags().StringSlice("protocols", nil, "Protocols to compare, defaults to all for the preset kind")
	cmd.Flags().Int("episodes", 0, "Episodes per protocol")
	cmd.Flags().Int64("seed", 0, "Base random seed")
	cmd.Flags().Float64("start-temp", 0, "Fixed starting temperature in Kelvin")
	cmd.Flags().String("label", "", "Optional run label")
	return cmd
}
