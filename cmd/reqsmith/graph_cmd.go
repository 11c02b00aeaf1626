package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/manifest-tools/reqsmith/internal/resolve"
	"github.com/manifest-tools/reqsmith/internal/utils/logger"
)

var graphOutput string // output file, empty for stdout

// createGraphCommand creates the graph subcommand
func createGraphCommand() *cobra.Command {
	graphCmd := &cobra.Command{
		Use:               "graph [flags] REQUIREMENTS_FILE",
		Short:             "Render the include graph in Graphviz DOT form",
		Args:              cobra.ExactArgs(1),
		RunE:              executeGraph,
		ValidArgsFunction: manifestFileCompletion,
	}

	graphCmd.Flags().StringVarP(&graphOutput, "output", "o", "",
		"Write the DOT graph to this file instead of stdout")
	return graphCmd
}

// executeGraph handles the graph command logic
func executeGraph(cmd *cobra.Command, args []string) error {
	log := logger.Logger()
	target := args[0]

	set, err := resolve.Flatten(target)
	if err != nil {
		return fmt.Errorf("resolving includes: %v", err)
	}

	if graphOutput == "" {
		return resolve.Dot(cmd.OutOrStdout(), set)
	}

	f, err := os.Create(graphOutput)
	if err != nil {
		return fmt.Errorf("creating %s: %w", graphOutput, err)
	}
	defer f.Close()

	if err := resolve.Dot(f, set); err != nil {
		return fmt.Errorf("writing dot graph: %w", err)
	}
	log.Infof("wrote include graph to %s", graphOutput)
	return nil
}
