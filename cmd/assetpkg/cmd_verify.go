package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/odvcencio/assetpkg/pkg/manifest"
	"github.com/odvcencio/assetpkg/pkg/operation"
)

func newVerifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Reconcile the bundle cache against the sandbox manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(cmd); err != nil {
				return err
			}
			store, err := a.store()
			if err != nil {
				return err
			}
			version, err := store.ReadCachedVersion()
			if err != nil {
				return err
			}
			data, err := store.ReadCachedManifest(version)
			if err != nil {
				return err
			}
			idx, err := manifest.DecodeIndex(data)
			if err != nil {
				return fmt.Errorf("verify: %w", err)
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			pass := a.verifier(store).Validate(ctx, idx)
			if err := operation.Drive(ctx, pass, time.Millisecond); err != nil {
				return err
			}
			r := pass.Result()
			fmt.Fprintf(cmd.OutOrStdout(),
				"ok: version %s, %d verified, %d missing, %d removed, %d orphan(s)\n",
				version, r.Verified, r.Missing, r.Mismatched, r.Orphans)
			return nil
		},
	}
}
