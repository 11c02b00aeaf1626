package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/manifest-tools/reqsmith/internal/manifest"
	"github.com/manifest-tools/reqsmith/internal/utils/logger"
)

var fmtCheck bool // report instead of rewrite

// createFmtCommand creates the fmt subcommand
func createFmtCommand() *cobra.Command {
	fmtCmd := &cobra.Command{
		Use:   "fmt [flags] REQUIREMENTS_FILE",
		Short: "Rewrite a requirements manifest in canonical form",
		Long: `Fmt rewrites a requirements manifest canonically: one pin per logical
line, hashes sorted and placed on backslash-continued lines. Lines the
parser cannot understand are preserved verbatim so lint can still point
at them.`,
		Args:              cobra.ExactArgs(1),
		RunE:              executeFmt,
		ValidArgsFunction: manifestFileCompletion,
	}

	fmtCmd.Flags().BoolVar(&fmtCheck, "check", false,
		"Exit non-zero if the file is not canonical, without rewriting it")
	return fmtCmd
}

// executeFmt handles the fmt command logic
func executeFmt(cmd *cobra.Command, args []string) error {
	log := logger.Logger()
	target := args[0]

	original, err := os.ReadFile(target)
	if err != nil {
		return fmt.Errorf("reading %s: %w", target, err)
	}
	m, err := manifest.Load(target)
	if err != nil {
		return err
	}

	formatted := manifest.Format(m)
	if string(original) == formatted {
		log.Infof("✓ %s is already canonical", target)
		return nil
	}

	if fmtCheck {
		return fmt.Errorf("%s is not in canonical form", target)
	}

	if err := manifest.WriteFile(m, target); err != nil {
		return err
	}
	log.Infof("rewrote %s", target)
	return nil
}
