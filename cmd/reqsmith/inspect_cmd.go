package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/manifest-tools/reqsmith/internal/inspect"
	"github.com/manifest-tools/reqsmith/internal/verify"
)

// createInspectCommand creates the inspect subcommand
func createInspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect ARTIFACT...",
		Short: "Print the identity and digest of local artifacts",
		Long: `Inspect opens wheel and sdist artifacts (.whl, .zip, .tar.gz, .tar.xz,
.tar.zst), reads the distribution name and version out of their metadata,
and prints them with the file's sha256 digest.`,
		Args: cobra.MinimumNArgs(1),
		RunE: executeInspect,
	}
}

// executeInspect handles the inspect command logic
func executeInspect(cmd *cobra.Command, args []string) error {
	failed := 0
	for _, path := range args {
		info, err := inspect.Peek(path)
		if err != nil {
			failed++
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", path, err)
			continue
		}
		digest, err := verify.FileSHA256(path)
		if err != nil {
			failed++
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", path, err)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s==%s sha256=%s\n",
			path, info.Canonical, info.Version, digest)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d artifacts could not be inspected", failed, len(args))
	}
	return nil
}
