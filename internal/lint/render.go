package lint

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Report is the JSON-serializable wrapper around a lint result.
type Report struct {
	RunID     string    `json:"runId"`
	Target    string    `json:"target"`
	Timestamp time.Time `json:"timestamp"`
	Errors    int       `json:"errors"`
	Warnings  int       `json:"warnings"`
	Findings  []Finding `json:"findings"`
}

// NewReport wraps a result for JSON output.
func NewReport(runID, target string, res *Result) Report {
	findings := res.Findings
	if findings == nil {
		findings = []Finding{}
	}
	return Report{
		RunID:     runID,
		Target:    target,
		Timestamp: time.Now().UTC(),
		Errors:    res.Errors(),
		Warnings:  res.Warnings(),
		Findings:  findings,
	}
}

// RenderJSON writes the report as JSON, pretty-printed when asked.
func RenderJSON(w io.Writer, rep Report, pretty bool) error {
	var (
		b   []byte
		err error
	)
	if pretty {
		b, err = json.MarshalIndent(rep, "", "  ")
	} else {
		b, err = json.Marshal(rep)
	}
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	_, _ = fmt.Fprintln(w, string(b))
	return nil
}

// RenderText writes one finding per line with a summary tail.
func RenderText(w io.Writer, res *Result) error {
	for _, f := range res.Findings {
		if _, err := fmt.Fprintf(w, "%s:%d: %s: %s [%s]\n",
			f.File, f.Line, f.Severity, f.Message, f.Rule); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%d errors, %d warnings\n", res.Errors(), res.Warnings())
	return err
}

// Lines renders findings in the report-file form, one string per finding.
func Lines(res *Result) []string {
	out := make([]string, 0, len(res.Findings))
	for _, f := range res.Findings {
		out = append(out, fmt.Sprintf("%s:%d: %s: %s [%s]", f.File, f.Line, f.Severity, f.Message, f.Rule))
	}
	return out
}
