package logger

import (
	"fmt"
	"os"
	"path/filepath"
)

type FindingsReport struct {
	Title string
	Items []string
}

var GlobalFindingsReport FindingsReport
var ReportPath = "reports"

func init() {
	GlobalFindingsReport = FindingsReport{
		Title: "LintFindings",
		Items: []string{},
	}
}

// WriteFindingsToFile writes the GlobalFindingsReport to a text file as a list.
// The title is appended to the filename, e.g., findings-title.txt.
func WriteFindingsToFile() error {
	if err := os.MkdirAll(ReportPath, 0755); err != nil {
		return fmt.Errorf("creating base path: %w", err)
	}

	// Sanitize the title for use in a filename
	title := GlobalFindingsReport.Title
	if title == "" {
		title = "untitled"
	}
	safeTitle := ""
	for _, r := range title {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			safeTitle += string(r)
		} else {
			safeTitle += "_"
		}
	}

	reportFullPath := filepath.Join(ReportPath, fmt.Sprintf("findings-%s.txt", safeTitle))

	f, err := os.OpenFile(reportFullPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	for _, item := range GlobalFindingsReport.Items {
		if _, err := fmt.Fprintln(f, item); err != nil {
			return fmt.Errorf("writing to file: %w", err)
		}
	}

	return nil
}
