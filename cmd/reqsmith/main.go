package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/manifest-tools/reqsmith/internal/config"
	"github.com/manifest-tools/reqsmith/internal/utils/logger"
)

// Persistent command flags
var (
	logLevel   string
	verbose    bool
	configFile string
)

func main() {
	rootCmd := createRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// createRootCommand creates the reqsmith root command
func createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "reqsmith",
		Short: "Toolkit for hash-pinned requirements manifests",
		Long: `reqsmith reads, validates, and audits pip-style requirements manifests:
flat lists of exact version pins with sha256 hash constraints, includes of
other requirement files, and per-package build directives.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log level: debug, info, warn, or error")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable debug logging (shorthand for --log-level debug)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"Path to reqsmith.yaml configuration file")

	rootCmd.AddCommand(createLintCommand())
	rootCmd.AddCommand(createFmtCommand())
	rootCmd.AddCommand(createFlattenCommand())
	rootCmd.AddCommand(createGraphCommand())
	rootCmd.AddCommand(createVerifyCommand())
	rootCmd.AddCommand(createAuditCommand())
	rootCmd.AddCommand(createInspectCommand())

	attachLoggingHooks(rootCmd)
	return rootCmd
}

// attachLoggingHooks wires config loading and logger setup into every
// subcommand so each RunE starts with a ready logger.
func attachLoggingHooks(root *cobra.Command) {
	for _, cmd := range root.Commands() {
		cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
			return setupRun(cmd)
		}
	}
}

func setupRun(cmd *cobra.Command) error {
	if configFile != "" {
		if _, err := config.Load(configFile, true); err != nil {
			return err
		}
	}

	level := resolveRequestedLogLevel(cmd)
	if level == "" {
		level = config.GlConfig.Logging.Level
	}
	return logger.Init(level)
}

// resolveRequestedLogLevel picks the log level: an explicit --log-level
// wins, then --verbose as a debug fallback, then empty for the config value.
func resolveRequestedLogLevel(cmd *cobra.Command) string {
	if logLevel != "" {
		return logLevel
	}
	if cmd != nil && flagExplicitlySet(cmd.Flags().Lookup("verbose")) {
		if v, err := cmd.Flags().GetBool("verbose"); err == nil && v {
			return "debug"
		}
	}
	return ""
}

func flagExplicitlySet(f *pflag.Flag) bool {
	return f != nil && f.Changed
}

// manifestFileCompletion completes positional arguments with .txt manifests
func manifestFileCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return []string{"txt"}, cobra.ShellCompDirectiveFilterFileExt
}
