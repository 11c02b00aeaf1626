package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/manifest-tools/reqsmith/internal/config"
	"github.com/manifest-tools/reqsmith/internal/fetch"
	"github.com/manifest-tools/reqsmith/internal/index"
	"github.com/manifest-tools/reqsmith/internal/resolve"
	"github.com/manifest-tools/reqsmith/internal/utils/logger"
)

// Audit command flags
var (
	auditIndexURL string // override the configured index
	auditDownload string // also download covered artifacts here
)

// createAuditCommand creates the audit subcommand
func createAuditCommand() *cobra.Command {
	auditCmd := &cobra.Command{
		Use:   "audit [flags] REQUIREMENTS_FILE",
		Short: "Compare pinned hashes with what the package index publishes",
		Long: `Audit fetches index metadata for every pinned release and compares the
manifest's sha256 constraints with the digests the index reports: a pinned
hash the index never published is an error, an index artifact the manifest
does not cover is a warning.`,
		Args:              cobra.ExactArgs(1),
		RunE:              executeAudit,
		ValidArgsFunction: manifestFileCompletion,
	}

	auditCmd.Flags().StringVar(&auditIndexURL, "index-url", "",
		"Package index base URL (default from config)")
	auditCmd.Flags().StringVar(&auditDownload, "download", "",
		"Also download the covered artifacts into this directory")
	return auditCmd
}

// executeAudit handles the audit command logic
func executeAudit(cmd *cobra.Command, args []string) error {
	log := logger.Logger()
	target := args[0]

	set, err := resolve.Flatten(target)
	if err != nil {
		return fmt.Errorf("resolving includes: %v", err)
	}

	helpers := config.NewConfigHelpers(&config.GlConfig)
	cacheDir, err := helpers.CacheDir()
	if err != nil {
		return fmt.Errorf("resolving cache directory: %v", err)
	}

	baseURL := auditIndexURL
	if baseURL == "" {
		baseURL = helpers.IndexURL()
	}
	client := index.NewClient(baseURL, cacheDir)
	log.Infof("auditing %d pins against %s", len(set.Pins), client.BaseURL)

	results := index.Audit(client, set)

	bad := 0
	for _, r := range results {
		fmt.Fprintln(cmd.OutOrStdout(), index.Summary(r))
		switch r.Outcome {
		case index.AuditUnknownHash:
			bad++
			for _, h := range r.UnknownHashes {
				fmt.Fprintf(cmd.OutOrStdout(), "  unknown hash sha256:%s\n", h)
			}
		case index.AuditUncovered:
			for _, f := range r.Uncovered {
				fmt.Fprintf(cmd.OutOrStdout(), "  uncovered %s sha256:%s\n", f.Filename, f.SHA256)
			}
		case index.AuditUnreachable:
			bad++
			fmt.Fprintf(cmd.OutOrStdout(), "  %v\n", r.Err)
		}
	}

	if auditDownload != "" {
		urls := index.DownloadURLs(results)
		log.Infof("downloading %d covered artifacts to %s using %d workers",
			len(urls), auditDownload, helpers.Workers())
		if err := fetch.Files(urls, auditDownload, helpers.Workers()); err != nil {
			return fmt.Errorf("fetch failed: %v", err)
		}
		log.Info("all downloads complete")
	}

	if bad > 0 {
		return fmt.Errorf("%d pins failed the index audit", bad)
	}
	return nil
}
