package lint

import (
	"regexp"

	"github.com/manifest-tools/reqsmith/internal/manifest"
)

// Severity of a finding.
type Severity string

const (
	Error   Severity = "error"
	Warning Severity = "warning"
)

// Finding is one rule violation at a position in a manifest.
type Finding struct {
	Rule     string   `json:"rule"`
	Severity Severity `json:"severity"`
	File     string   `json:"file"`
	Line     int      `json:"line"`
	Message  string   `json:"message"`
}

// Result collects the findings for one lint run.
type Result struct {
	Findings []Finding `json:"findings"`
}

// Errors reports whether any finding has error severity.
func (r *Result) Errors() int {
	n := 0
	for _, f := range r.Findings {
		if f.Severity == Error {
			n++
		}
	}
	return n
}

// Warnings counts warning-severity findings.
func (r *Result) Warnings() int {
	n := 0
	for _, f := range r.Findings {
		if f.Severity == Warning {
			n++
		}
	}
	return n
}

func (r *Result) add(rule string, sev Severity, file string, line int, msg string) {
	r.Findings = append(r.Findings, Finding{
		Rule:     rule,
		Severity: sev,
		File:     file,
		Line:     line,
		Message:  msg,
	})
}

var sha256Re = regexp.MustCompile(`^[0-9a-f]{64}$`)

// knownDirectives are the installer flags this format admits besides
// includes. Anything else is a typo until proven otherwise.
var knownDirectives = []string{
	"--no-binary",
	"--only-binary",
	"--index-url",
	"--extra-index-url",
}

// File runs every rule against a single parsed manifest.
func File(m *manifest.Manifest) *Result {
	res := &Result{}
	checkLineShapes(res, m)
	checkHashes(res, m)
	checkRefsExist(res, m)
	checkUniquePins(res, m)
	checkHashCoverage(res, m)
	checkDirectives(res, m)
	return res
}

// Files runs every per-file rule over each manifest of a flattened set.
// Cross-file duplicate detection is resolve's job; it fails the flatten
// before lint ever sees the set.
func Files(ms []*manifest.Manifest) *Result {
	res := &Result{}
	for _, m := range ms {
		r := File(m)
		res.Findings = append(res.Findings, r.Findings...)
	}
	return res
}
