package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/odvcencio/assetpkg/pkg/manifest"
)

func newNameCmd() *cobra.Command {
	var style, hash string

	cmd := &cobra.Command{
		Use:   "name <bundle-name>",
		Short: "Print the published file name of a bundle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := parseNameStyle(style)
			if err != nil {
				return err
			}
			name, err := manifest.ResolveFileName(s, args[0], manifest.FileExtension(args[0]), hash)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), name)
			return nil
		},
	}
	cmd.Flags().StringVar(&style, "style", "bundle_hash", "name style: hash, bundle, bundle_hash or its number")
	cmd.Flags().StringVar(&hash, "hash", "", "bundle file hash")
	return cmd
}

func parseNameStyle(raw string) (manifest.NameStyle, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "hash", "hashname":
		return manifest.NameStyleHashName, nil
	case "bundle", "bundlename":
		return manifest.NameStyleBundleName, nil
	case "bundle_hash", "bundle-hash", "bundlename_hashname":
		return manifest.NameStyleBundleNameHashName, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("unknown name style %q", raw)
	}
	return manifest.NameStyle(n), nil
}
