package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odvcencio/assetpkg/pkg/filehash"
	"github.com/odvcencio/assetpkg/pkg/manifest"
	"github.com/odvcencio/assetpkg/pkg/remote"
)

func newFetchCmd(a *app) *cobra.Command {
	var pinned string

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download the hosted manifest into the sandbox",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(cmd); err != nil {
				return err
			}
			client, err := a.remote()
			if err != nil {
				return err
			}
			store, err := a.store()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			pkg := a.cfg.PackageName

			version := pinned
			if version == "" {
				version, err = client.FetchPackageVersion(ctx, pkg)
				if err != nil {
					return err
				}
			}
			data, err := client.FetchManifest(ctx, pkg, version)
			if err != nil {
				return err
			}

			want, err := client.FetchManifestHash(ctx, pkg, version)
			switch {
			case err == nil && want != "":
				got, err := filehash.Bytes(store.HashAlgorithm(), data)
				if err != nil {
					return err
				}
				if got != want {
					return fmt.Errorf("fetch %s %s: manifest hash %s, server says %s", pkg, version, got, want)
				}
			case err != nil && !errors.Is(err, remote.ErrNotFound):
				return err
			}

			m, _, err := manifest.Decode(data)
			if err != nil {
				return fmt.Errorf("fetch %s %s: %w", pkg, version, err)
			}
			if m.PackageVersion != version {
				a.logger.Warn("hosted manifest version differs from marker", "marker", version, "manifest", m.PackageVersion)
			}
			if err := store.SaveManifest(version, data); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "fetched %s version %s (%d bytes, %d bundle(s))\n",
				pkg, version, len(data), len(m.BundleList))
			return nil
		},
	}
	cmd.Flags().StringVar(&pinned, "version", "", "fetch this version instead of the hosted version marker")
	return cmd
}
