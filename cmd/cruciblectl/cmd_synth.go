package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"crucible/pkg/crucible"
)

func newSynthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Run a single synthesis episode under a named protocol",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, client, err := setup(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			preset, _ := cmd.Flags().GetString("preset")
			protocol, _ := cmd.Flags().GetString("protocol")
			seed, _ := cmd.Flags().GetInt64("seed")
			continuous, _ := cmd.Flags().GetBool("continuous")
			label, _ := cmd.Flags().GetString("label")

			var startTemp *float64
			if cmd.Flags().Changed("start-temp") {
				v, _ := cmd.Flags().GetFloat64("start-temp")
				startTemp = &v
			}

			summary, err := client.Synthesize(cmd.Context(), crucible.SynthesisRequest{
				Preset:     preset,
				Protocol:   protocol,
				Seed:       seed,
				StartTemp:  startTemp,
				Continuous: continuous,
				Label:      label,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "synthesis completed run_id=%s preset=%s material=%s protocol=%s seed=%d\n",
				summary.RunID, summary.Preset, summary.Material, summary.Protocol, summary.Seed)
			fmt.Fprintf(out, "steps=%d total_reward=%.6f termination=%s\n",
				summary.Steps, summary.TotalReward, summary.Termination)
			fmt.Fprintf(out, "final %s\n", formatObservation(summary.ObsColumns, summary.FinalObs))
			fmt.Fprintf(out, "artifacts_dir=%s\n", summary.ArtifactsDir)
			return nil
		},
	}

	cmd.Flags().String("preset", "", "Simulator preset name")
	cmd.Flags().String("protocol", "", "Control protocol name")
	cmd.Flags().Int64("seed", 0, "Random seed")
	cmd.Flags().Float64("start-temp", 0, "Fixed starting temperature in Kelvin")
	cmd.Flags().Bool("continuous", false, "Interpolate between discrete control levels")
	cmd.Flags().String("label", "", "Optional run label")
	return cmd
}

func formatObservation(columns []string, values []float64) string {
	parts := make([]string, 0, len(values))
	for i, v := range values {
		name := fmt.Sprintf("obs%d", i)
		if i < len(columns) {
			name = columns[i]
		}
		parts = append(parts, fmt.Sprintf("%s=%.4f", name, v))
	}
	return strings.Join(parts, " ")
}
