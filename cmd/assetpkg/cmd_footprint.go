package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odvcencio/assetpkg/pkg/footprint"
)

func newFootprintCmd(a *app) *cobra.Command {
	var reset bool

	cmd := &cobra.Command{
		Use:   "footprint",
		Short: "Show or reset the application footprint of the sandbox",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(cmd); err != nil {
				return err
			}
			store, err := a.store()
			if err != nil {
				return err
			}
			g := footprint.New(store, a.buildID(), a.logger)
			if err := g.Load(a.cfg.PackageName); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if reset && g.IsDirty() {
				if err := store.DeleteManifestFiles(); err != nil {
					return err
				}
				if err := g.Coverage(a.cfg.PackageName); err != nil {
					return err
				}
				fmt.Fprintln(out, "footprint reset; sandbox manifests deleted")
			}
			state := "clean"
			if g.IsDirty() {
				state = "dirty"
			}
			fmt.Fprintf(out, "footprint: %s\nbuild:     %s\nstate:     %s\n", g.Value(), g.BuildID(), state)
			return nil
		},
	}
	cmd.Flags().BoolVar(&reset, "reset", false, "delete sandbox manifests and record the current build when dirty")
	return cmd
}
