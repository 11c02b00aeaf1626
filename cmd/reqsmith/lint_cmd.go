package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/manifest-tools/reqsmith/internal/config"
	"github.com/manifest-tools/reqsmith/internal/lint"
	"github.com/manifest-tools/reqsmith/internal/manifest"
	"github.com/manifest-tools/reqsmith/internal/resolve"
	"github.com/manifest-tools/reqsmith/internal/utils/logger"
)

// Output format command flags
var (
	prettyLintJSON bool = true // Pretty-print JSON output
	lintFormat     string      // "text" | "json"
	lintFlat       bool        // lint the flattened include closure
	lintReport     bool        // also append findings to the report file
)

// createLintCommand creates the lint subcommand
func createLintCommand() *cobra.Command {
	lintCmd := &cobra.Command{
		Use:   "lint [flags] REQUIREMENTS_FILE",
		Short: "Check a requirements manifest for structural problems",
		Long: `Lint checks a requirements manifest against the structural rules of the
format: exact pins only, well-formed sha256 hash constraints, existing
include references, no conflicting duplicate pins, full hash coverage, and
known installer flags.`,
		Args:              cobra.ExactArgs(1),
		RunE:              executeLint,
		ValidArgsFunction: manifestFileCompletion,
	}

	lintCmd.Flags().BoolVar(&prettyLintJSON, "pretty", true,
		"Pretty-print JSON output (only for --format json)")
	lintCmd.Flags().StringVar(&lintFormat, "format", "text",
		"Output format: text or json")
	lintCmd.Flags().BoolVar(&lintFlat, "flat", false,
		"Lint every file reached through -r/-c includes")
	lintCmd.Flags().BoolVar(&lintReport, "report", false,
		"Append findings to the report directory")
	return lintCmd
}

// executeLint handles the lint command execution logic
func executeLint(cmd *cobra.Command, args []string) error {
	log := logger.Logger()
	target := args[0]
	log.Infof("linting %s", target)

	var res *lint.Result
	if lintFlat {
		set, err := resolve.Flatten(target)
		if err != nil {
			return fmt.Errorf("resolving includes: %v", err)
		}
		res = lint.Files(set.Files)
	} else {
		m, err := manifest.Load(target)
		if err != nil {
			return err
		}
		res = lint.File(m)
	}

	switch lintFormat {
	case "json":
		rep := lint.NewReport(uuid.NewString(), target, res)
		if err := lint.RenderJSON(cmd.OutOrStdout(), rep, prettyLintJSON); err != nil {
			return err
		}
	case "text":
		if err := lint.RenderText(cmd.OutOrStdout(), res); err != nil {
			return err
		}
	default:
		return fmt.Errorf("invalid --format %q (expected text|json)", lintFormat)
	}

	if lintReport {
		logger.ReportPath = config.GlConfig.ReportDir
		logger.GlobalFindingsReport.Items = lint.Lines(res)
		if err := logger.WriteFindingsToFile(); err != nil {
			log.Errorf("writing findings report: %v", err)
		}
	}

	if n := res.Errors(); n > 0 {
		return fmt.Errorf("%d lint errors in %s", n, target)
	}
	log.Infof("✓ %s is clean (%d warnings)", target, res.Warnings())
	return nil
}
