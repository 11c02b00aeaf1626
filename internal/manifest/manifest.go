package manifest

import "strings"

// Manifest is one parsed requirements file. Entries keep file order so the
// writer can reproduce the document.
type Manifest struct {
	Path    string
	Entries []Entry
}

// EntryKind discriminates the logical line types of a requirements file.
type EntryKind int

const (
	KindBlank EntryKind = iota
	KindComment
	KindPin
	KindReference
	KindDirective
	KindInvalid
)

// Entry is one logical line. Continuation lines are already joined; Line is
// the first physical line number, starting at 1.
type Entry struct {
	Kind      EntryKind
	Line      int
	Raw       string
	Pin       *Pin
	Ref       *Reference
	Directive *Directive
	Err       string // set for KindInvalid
}

// Pin holds everything you need to fetch + verify one pinned release.
type Pin struct {
	Name      string   // as written, e.g. "Django"
	Canonical string   // normalized, e.g. "django"
	Extras    []string // e.g. ["argon2"] from Django[argon2]
	Version   string   // exact version, e.g. "4.2.15"
	Marker    string   // environment marker text after ";", may be empty
	Hashes    []Hash
}

// Hash is one acceptable artifact digest for a pin. Multiple hashes usually
// correspond to multiple platform artifacts of the same release.
type Hash struct {
	Algorithm string // e.g. "sha256"
	Digest    string // lowercase hex
}

// RefKind distinguishes requirement includes from constraint includes.
type RefKind int

const (
	RefRequirement RefKind = iota
	RefConstraint
)

// Reference is a "-r path" or "-c path" include of another manifest.
type Reference struct {
	Kind RefKind
	Path string
}

// Directive is a pass-through installer flag such as "--no-binary psycopg2".
type Directive struct {
	Flag string
	Args []string
}

// Pins returns the pin entries in file order.
func (m *Manifest) Pins() []*Pin {
	var out []*Pin
	for _, e := range m.Entries {
		if e.Kind == KindPin {
			out = append(out, e.Pin)
		}
	}
	return out
}

// References returns the include entries in file order.
func (m *Manifest) References() []*Reference {
	var out []*Reference
	for _, e := range m.Entries {
		if e.Kind == KindReference {
			out = append(out, e.Ref)
		}
	}
	return out
}

// Normalize canonicalizes a package name: lowercase, with runs of "-", "_"
// and "." collapsed to a single "-". "Typing_Extensions" and
// "typing.extensions" both normalize to "typing-extensions".
func Normalize(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	prevSep := false
	for _, r := range strings.ToLower(name) {
		if r == '-' || r == '_' || r == '.' {
			prevSep = true
			continue
		}
		if prevSep && b.Len() > 0 {
			b.WriteByte('-')
		}
		prevSep = false
		b.WriteRune(r)
	}
	return b.String()
}
