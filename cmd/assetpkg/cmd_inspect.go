package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/odvcencio/assetpkg/pkg/manifest"
)

func newInspectCmd() *cobra.Command {
	var bundleName string
	var tags []string
	var listAssets bool

	cmd := &cobra.Command{
		Use:   "inspect <manifest.bytes>",
		Short: "Decode a binary manifest and print its contents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			m, idx, err := manifest.Decode(data)
			if err != nil {
				return fmt.Errorf("inspect %s: %w", args[0], err)
			}

			out := cmd.OutOrStdout()
			if bundleName != "" {
				b, ok := idx.BundleByName(bundleName)
				if !ok {
					return fmt.Errorf("bundle %q not found", bundleName)
				}
				fmt.Fprintf(out, "%s -> %s (%s, crc %s)\n", b.BundleName, b.FileName, humanize.IBytes(uint64(b.FileSize)), b.FileCRC)
				for _, dep := range idx.Dependencies(b) {
					fmt.Fprintf(out, "  depends on %s\n", dep.BundleName)
				}
				return nil
			}
			if len(tags) > 0 {
				for _, b := range idx.BundlesWithTags(tags...) {
					fmt.Fprintf(out, "%s\t%s\n", b.BundleName, b.FileName)
				}
				return nil
			}

			fmt.Fprintf(out, "package:      %s\n", m.PackageName)
			fmt.Fprintf(out, "version:      %s\n", m.PackageVersion)
			fmt.Fprintf(out, "format:       %s\n", m.FileVersion)
			fmt.Fprintf(out, "pipeline:     %s\n", m.BuildPipeline)
			fmt.Fprintf(out, "name style:   %s\n", m.OutputNameStyle)
			fmt.Fprintf(out, "addressable:  %t\n", m.EnableAddressable)
			fmt.Fprintf(out, "lowercase:    %t\n", m.LocationToLower)
			fmt.Fprintf(out, "asset guids:  %t\n", m.IncludeAssetGUID)
			fmt.Fprintf(out, "assets:       %d\n", len(m.AssetList))
			fmt.Fprintf(out, "bundles:      %d\n", len(m.BundleList))

			var total int64
			for i := range m.BundleList {
				total += m.BundleList[i].FileSize
			}
			fmt.Fprintf(out, "total size:   %s\n", humanize.IBytes(uint64(total)))

			if listAssets {
				for i := range m.AssetList {
					asset := &m.AssetList[i]
					line := asset.AssetPath
					if asset.Address != "" {
						line += " (" + asset.Address + ")"
					}
					if len(asset.AssetTags) > 0 {
						line += " [" + strings.Join(asset.AssetTags, ",") + "]"
					}
					fmt.Fprintf(out, "  %s -> %s\n", line, idx.BundleOf(asset).BundleName)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&bundleName, "bundle", "", "show one bundle and its transitive dependencies")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "list bundles carrying any of these tags")
	cmd.Flags().BoolVar(&listAssets, "assets", false, "list every asset")
	return cmd
}
