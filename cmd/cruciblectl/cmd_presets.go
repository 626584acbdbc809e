package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List simulator presets with their resolved constants",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, client, err := setup(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			items, err := client.Presets(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, item := range items {
				fmt.Fprintf(out, "preset=%s kind=%s material=%q max_steps=%d\n",
					item.Name, item.Kind, item.Material, item.MaxSteps)
				var raw []byte
				switch {
				case item.Furnace != nil:
					raw, err = yaml.Marshal(item.Furnace)
				case item.Cell != nil:
					raw, err = yaml.Marshal(item.Cell)
				}
				if err != nil {
					return err
				}
				for _, line := range strings.Split(strings.TrimRight(string(raw), "\n"), "\n") {
					fmt.Fprintf(out, "  %s\n", line)
				}
			}
			return nil
		},
	}
}
