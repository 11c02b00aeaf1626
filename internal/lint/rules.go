package lint

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/manifest-tools/reqsmith/internal/manifest"
	"github.com/manifest-tools/reqsmith/internal/utils/slice"
)

// pin-format: every non-comment, non-flag line must have parsed as an exact
// pin. The parser already did the hard work; invalid entries become findings.
func checkLineShapes(res *Result, m *manifest.Manifest) {
	for _, e := range m.Entries {
		if e.Kind == manifest.KindInvalid {
			res.add("pin-format", Error, m.Path, e.Line, e.Err)
		}
	}
}

// hash-format: only sha256 with a 64-hex-char digest is acceptable.
func checkHashes(res *Result, m *manifest.Manifest) {
	for _, e := range m.Entries {
		if e.Kind != manifest.KindPin {
			continue
		}
		for _, h := range e.Pin.Hashes {
			if h.Algorithm != "sha256" {
				res.add("hash-format", Error, m.Path, e.Line,
					fmt.Sprintf("%s: unsupported hash algorithm %q", e.Pin.Canonical, h.Algorithm))
				continue
			}
			if !sha256Re.MatchString(h.Digest) {
				res.add("hash-format", Error, m.Path, e.Line,
					fmt.Sprintf("%s: sha256 digest must be 64 hex chars, got %d", e.Pin.Canonical, len(h.Digest)))
			}
		}
	}
}

// ref-exists: every -r/-c path must exist relative to the manifest.
func checkRefsExist(res *Result, m *manifest.Manifest) {
	for _, e := range m.Entries {
		if e.Kind != manifest.KindReference {
			continue
		}
		path := e.Ref.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(filepath.Dir(m.Path), path)
		}
		if _, err := os.Stat(path); err != nil {
			res.add("ref-exists", Error, m.Path, e.Line,
				fmt.Sprintf("referenced file %s does not exist", e.Ref.Path))
		}
	}
}

// unique-pin: a name pinned at two versions in one file is an error; the
// identical pin repeated is a warning.
func checkUniquePins(res *Result, m *manifest.Manifest) {
	versions := make(map[string]string)
	lines := make(map[string]int)
	for _, e := range m.Entries {
		if e.Kind != manifest.KindPin {
			continue
		}
		name := e.Pin.Canonical
		prev, seen := versions[name]
		if !seen {
			versions[name] = e.Pin.Version
			lines[name] = e.Line
			continue
		}
		if prev != e.Pin.Version {
			res.add("unique-pin", Error, m.Path, e.Line,
				fmt.Sprintf("%s pinned to %s here but %s at line %d", name, e.Pin.Version, prev, lines[name]))
		} else {
			res.add("unique-pin", Warning, m.Path, e.Line,
				fmt.Sprintf("%s==%s already pinned at line %d", name, e.Pin.Version, lines[name]))
		}
	}
}

// hash-coverage: in a file that uses hashes, every pin must carry at least
// one; the installer rejects mixed files. A fully hash-free file only gets a
// warning per pin.
func checkHashCoverage(res *Result, m *manifest.Manifest) {
	anyHashes := false
	for _, p := range m.Pins() {
		if len(p.Hashes) > 0 {
			anyHashes = true
			break
		}
	}
	sev := Warning
	if anyHashes {
		sev = Error
	}
	for _, e := range m.Entries {
		if e.Kind != manifest.KindPin || len(e.Pin.Hashes) > 0 {
			continue
		}
		res.add("hash-coverage", sev, m.Path, e.Line,
			fmt.Sprintf("%s==%s has no hash constraint", e.Pin.Canonical, e.Pin.Version))
	}
}

// directive-known: unknown flags are almost always typos of real ones.
func checkDirectives(res *Result, m *manifest.Manifest) {
	for _, e := range m.Entries {
		if e.Kind != manifest.KindDirective {
			continue
		}
		if !slice.Contains(knownDirectives, e.Directive.Flag) {
			res.add("directive-known", Error, m.Path, e.Line,
				fmt.Sprintf("unknown flag %q", e.Directive.Flag))
		}
	}
}
