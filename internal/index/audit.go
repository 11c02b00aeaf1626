package index

import (
	"fmt"
	"sort"

	"github.com/manifest-tools/reqsmith/internal/manifest"
	"github.com/manifest-tools/reqsmith/internal/resolve"
	"github.com/manifest-tools/reqsmith/internal/utils/logger"
)

// AuditOutcome classifies one pin's standing against the index.
type AuditOutcome string

const (
	AuditOK          AuditOutcome = "ok"          // hash sets agree
	AuditUnknownHash AuditOutcome = "unknownhash" // manifest hash the index never published
	AuditUncovered   AuditOutcome = "uncovered"   // index artifact not covered by the manifest
	AuditUnreachable AuditOutcome = "unreachable" // index lookup failed
	AuditNoHashes    AuditOutcome = "nohashes"    // pin carries no hashes to audit
)

// AuditResult is the verdict for one pin.
type AuditResult struct {
	Pin           *manifest.Pin
	Outcome       AuditOutcome
	UnknownHashes []string      // digests pinned but unknown to the index
	Covered       []ReleaseFile // index files whose digest the manifest pins
	Uncovered     []ReleaseFile // index files whose digest the manifest lacks
	Err           error
}

// Audit compares every pin's hash set with the digests the index reports for
// that release. Lookup failures degrade to per-pin results so one flaky
// package does not abort the whole audit.
func Audit(c *Client, set *resolve.Set) []AuditResult {
	log := logger.Logger()

	pins := set.SortedPins()
	results := make([]AuditResult, 0, len(pins))
	for _, pin := range pins {
		results = append(results, auditPin(c, pin))
	}

	counts := map[AuditOutcome]int{}
	for _, r := range results {
		counts[r.Outcome]++
	}
	log.Infof("audited %d pins: %d ok, %d with unknown hashes, %d uncovered, %d unreachable",
		len(results), counts[AuditOK], counts[AuditUnknownHash], counts[AuditUncovered], counts[AuditUnreachable])
	return results
}

func auditPin(c *Client, pin *manifest.Pin) AuditResult {
	res := AuditResult{Pin: pin}
	if len(pin.Hashes) == 0 {
		res.Outcome = AuditNoHashes
		return res
	}

	rel, err := c.Release(pin.Canonical, pin.Version)
	if err != nil {
		res.Outcome = AuditUnreachable
		res.Err = err
		return res
	}

	published := make(map[string]ReleaseFile, len(rel.Files))
	for _, f := range rel.Files {
		published[f.SHA256] = f
	}

	pinned := make(map[string]bool, len(pin.Hashes))
	for _, h := range pin.Hashes {
		if h.Algorithm != "sha256" {
			continue
		}
		pinned[h.Digest] = true
		if _, ok := published[h.Digest]; !ok {
			res.UnknownHashes = append(res.UnknownHashes, h.Digest)
		}
	}
	for _, f := range rel.Files {
		if pinned[f.SHA256] {
			res.Covered = append(res.Covered, f)
		} else if !f.Yanked {
			res.Uncovered = append(res.Uncovered, f)
		}
	}
	sort.Strings(res.UnknownHashes)

	switch {
	case len(res.UnknownHashes) > 0:
		res.Outcome = AuditUnknownHash
	case len(res.Uncovered) > 0:
		res.Outcome = AuditUncovered
	default:
		res.Outcome = AuditOK
	}
	return res
}

// DownloadURLs returns the index URLs of the artifacts whose digests the
// manifest pins, for handing to the fetcher. Only files the manifest will
// accept are worth downloading.
func DownloadURLs(results []AuditResult) []string {
	var urls []string
	for _, r := range results {
		for _, f := range r.Covered {
			urls = append(urls, f.URL)
		}
	}
	return urls
}

// Summary renders one audit result as a single line.
func Summary(r AuditResult) string {
	return fmt.Sprintf("%s==%s: %s", r.Pin.Canonical, r.Pin.Version, r.Outcome)
}
