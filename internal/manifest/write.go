package manifest

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

const hashIndent = "    "

// Format renders the manifest in canonical form: one pin per logical line,
// hashes sorted and placed on backslash-continued lines. Formatting an
// already-canonical manifest reproduces it byte for byte.
func Format(m *Manifest) string {
	var b strings.Builder
	for _, e := range m.Entries {
		writeEntry(&b, e)
	}
	return b.String()
}

// Write renders the manifest to w in canonical form.
func Write(w io.Writer, m *Manifest) error {
	_, err := io.WriteString(w, Format(m))
	return err
}

// WriteFile renders the manifest to path, replacing the file contents.
func WriteFile(m *Manifest, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	if err := Write(f, m); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func writeEntry(b *strings.Builder, e Entry) {
	switch e.Kind {
	case KindBlank:
		b.WriteString("\n")
	case KindComment, KindInvalid:
		// Invalid lines are preserved verbatim; fmt must not destroy what
		// lint still needs to report.
		b.WriteString(e.Raw)
		b.WriteString("\n")
	case KindReference:
		flag := "-r"
		if e.Ref.Kind == RefConstraint {
			flag = "-c"
		}
		fmt.Fprintf(b, "%s %s\n", flag, e.Ref.Path)
	case KindDirective:
		b.WriteString(e.Directive.Flag)
		for _, a := range e.Directive.Args {
			b.WriteString(" ")
			b.WriteString(a)
		}
		b.WriteString("\n")
	case KindPin:
		writePin(b, e.Pin)
	}
}

func writePin(b *strings.Builder, p *Pin) {
	b.WriteString(Specifier(p))
	if p.Marker != "" {
		fmt.Fprintf(b, " ; %s", p.Marker)
	}

	hashes := append([]Hash(nil), p.Hashes...)
	sort.Slice(hashes, func(i, j int) bool {
		if hashes[i].Algorithm != hashes[j].Algorithm {
			return hashes[i].Algorithm < hashes[j].Algorithm
		}
		return hashes[i].Digest < hashes[j].Digest
	})

	for _, h := range hashes {
		fmt.Fprintf(b, " \\\n%s--hash=%s:%s", hashIndent, h.Algorithm, h.Digest)
	}
	b.WriteString("\n")
}

// Specifier renders the "name[extras]==version" form of a pin.
func Specifier(p *Pin) string {
	var b strings.Builder
	b.WriteString(p.Name)
	if len(p.Extras) > 0 {
		fmt.Fprintf(&b, "[%s]", strings.Join(p.Extras, ","))
	}
	b.WriteString("==")
	b.WriteString(p.Version)
	return b.String()
}
