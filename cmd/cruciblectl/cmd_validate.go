package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"crucible/pkg/crucible"
)

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a halide loading for charge balance and lattice strain",
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, _ := cmd.Flags().GetFloat64("cl")
			br, _ := cmd.Flags().GetFloat64("br")
			iodine, _ := cmd.Flags().GetFloat64("iodine")

			client, err := crucible.New(crucible.Options{StoreKind: "memory"})
			if err != nil {
				return err
			}
			defer client.Close()

			report, err := client.Validate(cmd.Context(), crucible.ValidateRequest{
				Cl:     cl,
				Br:     br,
				Iodine: iodine,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "loading cl=%.4f br=%.4f i=%.4f\n", report.Cl, report.Br, report.Iodine)
			fmt.Fprintf(out, "formula=%q phase=%s\n", report.Formula, report.Phase)
			fmt.Fprintf(out, "li_remaining=%.4f excess_charge=%.4f vegard_strain_pct=%.4f stable=%t\n",
				report.LiRemaining, report.ExcessCharge, report.VegardStrainPct, report.Stable)
			for _, finding := range report.Findings {
				fmt.Fprintf(out, "finding=%s\n", finding)
			}
			return nil
		},
	}

	cmd.Flags().Float64("cl", 0, "Chlorine loading per formula unit")
	cmd.Flags().Float64("br", 0, "Bromine loading per formula unit")
	cmd.Flags().Float64("iodine", 0, "Iodine loading per formula unit")
	return cmd
}
