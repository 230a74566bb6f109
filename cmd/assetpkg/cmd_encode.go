package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/odvcencio/assetpkg/pkg/manifest"
	"github.com/odvcencio/assetpkg/pkg/sandbox"
)

func newEncodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "encode <description.{json,jsonc,yaml}> <manifest.bytes>",
		Short: "Encode a manifest description into the binary format",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := readDescription(args[0])
			if err != nil {
				return fmt.Errorf("encode: %w", err)
			}
			if m.FileVersion == "" {
				m.FileVersion = manifest.FormatVersion
			}
			if _, err := manifest.NewIndex(m); err != nil {
				return fmt.Errorf("encode: %w", err)
			}
			data, err := manifest.Encode(m)
			if err != nil {
				return fmt.Errorf("encode: %w", err)
			}
			if err := sandbox.WriteFileAtomic(args[1], data); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes, %d bundle(s), %d asset(s))\n",
				args[1], len(data), len(m.BundleList), len(m.AssetList))
			return nil
		},
	}
}

// readDescription parses a YAML or JSONC manifest description. JSONC allows
// comments and trailing commas.
func readDescription(path string) (*manifest.Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m manifest.Manifest
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(jsonc.ToJSON(data), &m); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	return &m, nil
}
