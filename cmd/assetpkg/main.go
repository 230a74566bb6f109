package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/odvcencio/assetpkg/pkg/footprint"
)

const version = "0.1.0-dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "assetpkg",
		Short:         "Resolve, inspect and cache asset package manifests",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	a.bindFlags(root)

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd(a))
	root.AddCommand(newInspectCmd())
	root.AddCommand(newEncodeCmd())
	root.AddCommand(newNameCmd())
	root.AddCommand(newFetchCmd(a))
	root.AddCommand(newFootprintCmd(a))
	root.AddCommand(newVerifyCmd(a))
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "assetpkg %s (build %s)\n", version, footprint.DefaultBuildID())
		},
	}
}
