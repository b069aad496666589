//go:build tui

package main

import (
	"io"

	"github.com/spf13/cobra"
	"github.com/unowned-ai/diary/pkg/location"
	"github.com/unowned-ai/diary/pkg/tui"
)

func init() {
	extraCommands = append(extraCommands, newTUICmd)
}

func newTUICmd(r *runtime) *cobra.Command {
	var lat, lng float64

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Show terminal UI",
		Long: `Browse and edit diary entries in an interactive terminal UI.

Pass --lat and --lng to let the form fill in the current location (ctrl+l).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// The alternate screen owns the terminal.
			r.logOut = io.Discard
			a, err := openApp(cmd.Context(), r)
			if err != nil {
				return err
			}
			defer a.Close()

			var here *location.Coordinate
			if cmd.Flags().Changed("lat") && cmd.Flags().Changed("lng") {
				here = &location.Coordinate{Latitude: lat, Longitude: lng}
			}

			return tui.ShowTUI(tui.Deps{
				Store:        a.store,
				Codec:        a.codec,
				Resolver:     a.resolver,
				Defaults:     a.defaults(),
				Logger:       a.log,
				DBFile:       a.dbPath,
				Here:         here,
				DisplayWidth: a.cfg.DisplayWidth,
			})
		},
	}
	cmd.Flags().Float64Var(&lat, "lat", 0, "Current latitude")
	cmd.Flags().Float64Var(&lng, "lng", 0, "Current longitude")
	return cmd
}
