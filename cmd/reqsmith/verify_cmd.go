package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/manifest-tools/reqsmith/internal/config"
	"github.com/manifest-tools/reqsmith/internal/resolve"
	"github.com/manifest-tools/reqsmith/internal/utils/logger"
	"github.com/manifest-tools/reqsmith/internal/verify"
)

// Verify command flags
var (
	verifyArtifacts string // directory of downloaded artifacts
	verifySig       string // detached signature file
	verifyKeyring   string // armored keyring file
)

// createVerifyCommand creates the verify subcommand
func createVerifyCommand() *cobra.Command {
	verifyCmd := &cobra.Command{
		Use:   "verify [flags] REQUIREMENTS_FILE",
		Short: "Verify local artifacts and signatures against the manifest",
		Long: `Verify checks that local artifact files match the sha256 hash
constraints pinned in the manifest, ahead of the installer doing the same
at install time. With --sig it also verifies a detached OpenPGP signature
over the manifest text.`,
		Args:              cobra.ExactArgs(1),
		RunE:              executeVerify,
		ValidArgsFunction: manifestFileCompletion,
	}

	verifyCmd.Flags().StringVar(&verifyArtifacts, "artifacts", "",
		"Directory containing the downloaded artifacts to check")
	verifyCmd.Flags().StringVar(&verifySig, "sig", "",
		"Detached armored signature over the manifest")
	verifyCmd.Flags().StringVar(&verifyKeyring, "keyring", "",
		"Armored keyring holding acceptable signing keys")
	return verifyCmd
}

// executeVerify handles the verify command logic
func executeVerify(cmd *cobra.Command, args []string) error {
	log := logger.Logger()
	target := args[0]

	if verifyArtifacts == "" && verifySig == "" {
		return fmt.Errorf("nothing to verify: pass --artifacts and/or --sig")
	}

	if verifySig != "" {
		if verifyKeyring == "" {
			return fmt.Errorf("--sig requires --keyring")
		}
		signer, err := verify.Signature(target, verifySig, verifyKeyring)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "signature: ok (signed by %s)\n", signer)
	}

	if verifyArtifacts == "" {
		return nil
	}

	set, err := resolve.Flatten(target)
	if err != nil {
		return fmt.Errorf("resolving includes: %v", err)
	}

	results, err := verify.Artifacts(set, verifyArtifacts, config.GlConfig.Workers)
	if err != nil {
		return err
	}

	mismatched := 0
	for _, r := range results {
		switch r.Outcome {
		case verify.OutcomeOK:
			fmt.Fprintf(cmd.OutOrStdout(), "ok       %s==%s\n", r.Pin.Canonical, r.Pin.Version)
		case verify.OutcomeMissing:
			log.Warnf("no artifact for %s==%s in %s", r.Pin.Canonical, r.Pin.Version, verifyArtifacts)
			fmt.Fprintf(cmd.OutOrStdout(), "missing  %s==%s\n", r.Pin.Canonical, r.Pin.Version)
		case verify.OutcomeNoHashes:
			log.Warnf("%s==%s carries no hashes to verify", r.Pin.Canonical, r.Pin.Version)
			fmt.Fprintf(cmd.OutOrStdout(), "nohashes %s==%s\n", r.Pin.Canonical, r.Pin.Version)
		case verify.OutcomeMismatch:
			mismatched++
			fmt.Fprintf(cmd.OutOrStdout(), "MISMATCH %s==%s\n", r.Pin.Canonical, r.Pin.Version)
			for _, a := range r.Artifacts {
				fmt.Fprintf(cmd.OutOrStdout(), "         %s sha256=%s\n", a.Path, a.Digest)
			}
		}
	}
	if mismatched > 0 {
		return fmt.Errorf("%d pins failed artifact verification", mismatched)
	}
	log.Info("all artifacts verified successfully")
	return nil
}
