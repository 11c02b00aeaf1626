package manifest

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

var (
	nameRe    = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9._-]*[A-Za-z0-9])?$`)
	versionRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9.+!*-]*$`)
	hexRe     = regexp.MustCompile(`^[0-9a-f]+$`)
)

// Load reads and parses the manifest at path.
func Load(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening manifest: %w", err)
	}
	defer f.Close()

	m, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	m.Path = path
	return m, nil
}

// Parse reads a requirements manifest from r. Malformed lines do not abort
// the parse; they come back as KindInvalid entries so callers can report
// every problem in one pass. Parse itself fails only when reading fails.
func Parse(r io.Reader) (*Manifest, error) {
	m := &Manifest{}
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for s.Scan() {
		lineNo++
		startLine := lineNo
		line := s.Text()

		// Join physical lines ending in a backslash into one logical line.
		for strings.HasSuffix(strings.TrimRight(line, " \t"), `\`) {
			line = strings.TrimSuffix(strings.TrimRight(line, " \t"), `\`)
			if !s.Scan() {
				break
			}
			lineNo++
			line += " " + strings.TrimSpace(s.Text())
		}

		m.Entries = append(m.Entries, parseLogicalLine(line, startLine))
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	return m, nil
}

func parseLogicalLine(line string, lineNo int) Entry {
	trimmed := strings.TrimSpace(line)
	entry := Entry{Line: lineNo, Raw: trimmed}

	switch {
	case trimmed == "":
		entry.Kind = KindBlank
		return entry
	case strings.HasPrefix(trimmed, "#"):
		entry.Kind = KindComment
		return entry
	case strings.HasPrefix(trimmed, "-"):
		return parseFlagLine(entry, trimmed)
	default:
		return parsePinLine(entry, trimmed)
	}
}

func parseFlagLine(entry Entry, line string) Entry {
	fields := strings.Fields(line)
	flag := fields[0]
	args := fields[1:]

	switch flag {
	case "-r", "--requirement", "-c", "--constraint":
		if len(args) != 1 {
			entry.Kind = KindInvalid
			entry.Err = fmt.Sprintf("%s expects exactly one path", flag)
			return entry
		}
		kind := RefRequirement
		if flag == "-c" || flag == "--constraint" {
			kind = RefConstraint
		}
		entry.Kind = KindReference
		entry.Ref = &Reference{Kind: kind, Path: args[0]}
		return entry
	default:
		entry.Kind = KindDirective
		entry.Directive = &Directive{Flag: flag, Args: args}
		return entry
	}
}

func parsePinLine(entry Entry, line string) Entry {
	tokens := strings.Fields(line)

	pin, err := parseSpecifier(tokens[0])
	if err != nil {
		entry.Kind = KindInvalid
		entry.Err = err.Error()
		return entry
	}

	// The rest of the line is hash tokens, optionally preceded by an
	// environment marker introduced by ";".
	var markerParts []string
	inMarker := false
	for _, tok := range tokens[1:] {
		switch {
		case strings.HasPrefix(tok, "--hash="):
			inMarker = false
			h, err := parseHashToken(tok)
			if err != nil {
				entry.Kind = KindInvalid
				entry.Err = err.Error()
				return entry
			}
			pin.Hashes = append(pin.Hashes, h)
		case tok == ";":
			inMarker = true
		case strings.HasPrefix(tok, ";"):
			inMarker = true
			markerParts = append(markerParts, strings.TrimPrefix(tok, ";"))
		case inMarker:
			markerParts = append(markerParts, tok)
		default:
			entry.Kind = KindInvalid
			entry.Err = fmt.Sprintf("unexpected token %q after pin", tok)
			return entry
		}
	}
	pin.Marker = strings.Join(markerParts, " ")

	entry.Kind = KindPin
	entry.Pin = pin
	return entry
}

// parseSpecifier parses "name[extras]==version" into a Pin without hashes.
func parseSpecifier(spec string) (*Pin, error) {
	idx := strings.Index(spec, "==")
	if idx < 0 {
		return nil, fmt.Errorf("%q is not an exact pin (expected name==version)", spec)
	}
	namePart := spec[:idx]
	version := spec[idx+2:]

	var extras []string
	if open := strings.Index(namePart, "["); open >= 0 {
		if !strings.HasSuffix(namePart, "]") {
			return nil, fmt.Errorf("unterminated extras in %q", spec)
		}
		for _, e := range strings.Split(namePart[open+1:len(namePart)-1], ",") {
			e = strings.TrimSpace(e)
			if e != "" {
				extras = append(extras, e)
			}
		}
		namePart = namePart[:open]
	}

	if !nameRe.MatchString(namePart) {
		return nil, fmt.Errorf("invalid package name %q", namePart)
	}
	if !versionRe.MatchString(version) {
		return nil, fmt.Errorf("invalid version %q for package %s", version, namePart)
	}

	return &Pin{
		Name:      namePart,
		Canonical: Normalize(namePart),
		Extras:    extras,
		Version:   version,
	}, nil
}

// parseHashToken parses one "--hash=alg:digest" token. Only the token shape
// is validated here; algorithm and digest-length policy belong to lint.
func parseHashToken(tok string) (Hash, error) {
	val := strings.TrimPrefix(tok, "--hash=")
	alg, digest, ok := strings.Cut(val, ":")
	if !ok || alg == "" || digest == "" {
		return Hash{}, fmt.Errorf("malformed hash token %q (expected --hash=alg:digest)", tok)
	}
	digest = strings.ToLower(digest)
	if !hexRe.MatchString(digest) {
		return Hash{}, fmt.Errorf("hash digest in %q is not hex", tok)
	}
	return Hash{Algorithm: alg, Digest: digest}, nil
}
