package verify

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/manifest-tools/reqsmith/internal/manifest"
	"github.com/manifest-tools/reqsmith/internal/resolve"
	"github.com/manifest-tools/reqsmith/internal/utils/logger"
)

// Outcome classifies the verification of one pin against local artifacts.
type Outcome string

const (
	OutcomeOK       Outcome = "ok"       // at least one artifact matched a pinned hash
	OutcomeMismatch Outcome = "mismatch" // artifact found, digest not in the hash set
	OutcomeMissing  Outcome = "missing"  // no artifact for this pin in the directory
	OutcomeNoHashes Outcome = "nohashes" // pin carries no hashes to check against
)

// PinResult is the verification verdict for one pin.
type PinResult struct {
	Pin       *manifest.Pin
	Outcome   Outcome
	Artifacts []ArtifactResult
}

// ArtifactResult is the digest check of one artifact file.
type ArtifactResult struct {
	Path    string
	Digest  string
	Matched bool
	Err     error
}

// Artifacts verifies every pin of a flattened set against artifact files in
// dir, hashing on a pool of workers. Returns results ordered by canonical
// name.
func Artifacts(set *resolve.Set, dir string, workers int) ([]PinResult, error) {
	log := logger.Logger()

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading artifact directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}

	pins := set.SortedPins()
	results := make([]PinResult, len(pins))
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan int, len(pins))
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = verifyPin(pins[idx], files)
			}
		}()
	}
	for i := range pins {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	ok, bad := 0, 0
	for _, r := range results {
		switch r.Outcome {
		case OutcomeOK:
			ok++
		case OutcomeMismatch:
			bad++
		}
	}
	log.Infof("verified %d pins: %d ok, %d mismatched", len(results), ok, bad)
	return results, nil
}

func verifyPin(pin *manifest.Pin, files []string) PinResult {
	res := PinResult{Pin: pin}
	if len(pin.Hashes) == 0 {
		res.Outcome = OutcomeNoHashes
		return res
	}

	allowed := make(map[string]bool, len(pin.Hashes))
	for _, h := range pin.Hashes {
		if h.Algorithm == "sha256" {
			allowed[h.Digest] = true
		}
	}

	matched := false
	for _, path := range files {
		if !ArtifactMatchesPin(filepath.Base(path), pin) {
			continue
		}
		digest, err := FileSHA256(path)
		ar := ArtifactResult{Path: path, Digest: digest, Err: err}
		if err == nil && allowed[digest] {
			ar.Matched = true
			matched = true
		}
		res.Artifacts = append(res.Artifacts, ar)
	}

	switch {
	case len(res.Artifacts) == 0:
		res.Outcome = OutcomeMissing
	case matched:
		res.Outcome = OutcomeOK
	default:
		res.Outcome = OutcomeMismatch
	}
	return res
}

// ArtifactMatchesPin reports whether an artifact filename names the pinned
// release. Both wheel and sdist naming encode "name-version" up front, with
// the name's separators flattened to underscores in wheels.
func ArtifactMatchesPin(base string, pin *manifest.Pin) bool {
	stem := base
	for _, suffix := range []string{".whl", ".zip", ".tar.gz", ".tar.bz2", ".tar.xz", ".tar.zst", ".tar"} {
		if strings.HasSuffix(stem, suffix) {
			stem = strings.TrimSuffix(stem, suffix)
			break
		}
	}

	want := pin.Canonical + "-" + pin.Version
	got := strings.ToLower(strings.ReplaceAll(stem, "_", "-"))
	return got == want || strings.HasPrefix(got, want+"-")
}

// FileSHA256 returns the lowercase hex sha256 digest of a file.
func FileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
