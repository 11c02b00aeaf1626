package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/manifest-tools/reqsmith/internal/manifest"
	"github.com/manifest-tools/reqsmith/internal/resolve"
	"github.com/manifest-tools/reqsmith/internal/utils/logger"
)

// createFlattenCommand creates the flatten subcommand
func createFlattenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "flatten REQUIREMENTS_FILE",
		Short: "Print the resolved include closure as one manifest",
		Long: `Flatten resolves every -r and -c reference transitively and prints the
combined pin set as a single canonical manifest, sorted by package name.
Version conflicts between files fail the command.`,
		Args:              cobra.ExactArgs(1),
		RunE:              executeFlatten,
		ValidArgsFunction: manifestFileCompletion,
	}
}

// executeFlatten handles the flatten command logic
func executeFlatten(cmd *cobra.Command, args []string) error {
	log := logger.Logger()
	target := args[0]

	set, err := resolve.Flatten(target)
	if err != nil {
		return fmt.Errorf("resolving includes: %v", err)
	}
	log.Infof("flattened %s: %d pins from %d files", target, len(set.Pins), len(set.Files))

	return manifest.Write(cmd.OutOrStdout(), set.Manifest())
}
