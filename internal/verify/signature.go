package verify

import (
	"fmt"
	"os"

	"github.com/ProtonMail/go-crypto/openpgp"

	"github.com/manifest-tools/reqsmith/internal/utils/logger"
)

// Signature checks a detached armored OpenPGP signature over the manifest
// text against an armored keyring file. Returns the identity of the signing
// key on success.
func Signature(manifestPath, sigPath, keyringPath string) (string, error) {
	log := logger.Logger()

	keyFile, err := os.Open(keyringPath)
	if err != nil {
		return "", fmt.Errorf("opening keyring: %w", err)
	}
	defer keyFile.Close()

	keyring, err := openpgp.ReadArmoredKeyRing(keyFile)
	if err != nil {
		return "", fmt.Errorf("reading keyring: %w", err)
	}
	log.Debugf("loaded keyring with %d keys", len(keyring))

	signed, err := os.Open(manifestPath)
	if err != nil {
		return "", fmt.Errorf("opening manifest: %w", err)
	}
	defer signed.Close()

	sig, err := os.Open(sigPath)
	if err != nil {
		return "", fmt.Errorf("opening signature: %w", err)
	}
	defer sig.Close()

	signer, err := openpgp.CheckArmoredDetachedSignature(keyring, signed, sig, nil)
	if err != nil {
		return "", fmt.Errorf("signature verification failed: %w", err)
	}

	identity := ""
	for name := range signer.Identities {
		identity = name
		break
	}
	log.Infof("manifest signature valid, signed by %s", identity)
	return identity, nil
}
