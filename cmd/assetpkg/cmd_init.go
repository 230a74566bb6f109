package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/odvcencio/assetpkg/pkg/bootstrap"
	"github.com/odvcencio/assetpkg/pkg/cache"
	"github.com/odvcencio/assetpkg/pkg/operation"
)

func newInitCmd(a *app) *cobra.Command {
	var mode string
	var immediate bool
	var interval, timeout time.Duration

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Bootstrap the package manifest for the configured play mode",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(cmd); err != nil {
				return err
			}
			if mode == "" {
				mode = a.cfg.Mode
			}
			m, err := bootstrap.ParseMode(mode)
			if err != nil {
				return err
			}

			deps := bootstrap.Deps{
				PackageName:          a.cfg.PackageName,
				BuildID:              a.buildID(),
				SimulateManifestPath: a.cfg.SimulateManifest,
				Immediate:            immediate || a.cfg.Immediate,
				DecodeBudget:         a.cfg.DecodeBudget,
				Logger:               a.logger,
			}
			if m != bootstrap.ModeSimulate {
				store, err := a.store()
				if err != nil {
					return err
				}
				deps.Store = store
				deps.Cache = a.verifier(store)
			}
			if m == bootstrap.ModeWeb {
				client, err := a.remote()
				if err != nil {
					return err
				}
				deps.Remote = client
			}

			plan, err := bootstrap.NewPlan(m, deps)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			session := bootstrap.NewSession(a.cfg.PackageName)
			machine := session.Initialize(ctx, plan)
			if err := operation.Drive(ctx, machine, interval); err != nil {
				return fmt.Errorf("initialize %s: %w", a.cfg.PackageName, err)
			}

			out := cmd.OutOrStdout()
			snap := session.Snapshot()
			if snap == nil {
				fmt.Fprintf(out, "%s (%s): initialized without an active manifest\n", a.cfg.PackageName, m)
				return nil
			}
			man := snap.Index.Manifest()
			fmt.Fprintf(out, "%s (%s): version %s, %d bundle(s), %d asset(s)\n",
				a.cfg.PackageName, m, snap.PackageVersion, len(man.BundleList), len(man.AssetList))
			if r := machine.CacheReport(); r != (cache.Report{}) {
				fmt.Fprintf(out, "cache: %d verified, %d missing, %d removed, %d orphan(s)\n",
					r.Verified, r.Missing, r.Mismatched, r.Orphans)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "", "play mode: simulate, offline, host or web (overrides config)")
	cmd.Flags().BoolVar(&immediate, "immediate", false, "resolve every ready step on the first poll")
	cmd.Flags().DurationVar(&interval, "interval", 10*time.Millisecond, "poll interval")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall timeout")
	return cmd
}
