package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/unowned-ai/diary/pkg/location"
)

func newLocateCmd(r *runtime) *cobra.Command {
	var lat, lng float64

	cmd := &cobra.Command{
		Use:   "locate",
		Short: "Resolve a coordinate to a \"City, State\" label",
		RunE: func(cmd *cobra.Command, args []string) error {
			resolver, err := newResolver(r.cfg, nil)
			if err != nil {
				return err
			}

			label, ok, err := resolver.ResolveCurrentPlace(cmd.Context(), location.Coordinate{Latitude: lat, Longitude: lng})
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no named place found at %.5f,%.5f", lat, lng)
			}
			fmt.Fprintln(cmd.OutOrStdout(), label)
			return nil
		},
	}
	cmd.Flags().Float64Var(&lat, "lat", 0, "Latitude in degrees")
	cmd.Flags().Float64Var(&lng, "lng", 0, "Longitude in degrees")
	cmd.MarkFlagRequired("lat")
	cmd.MarkFlagRequired("lng")
	return cmd
}
