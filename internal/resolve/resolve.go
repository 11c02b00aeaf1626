package resolve

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/manifest-tools/reqsmith/internal/manifest"
	"github.com/manifest-tools/reqsmith/internal/utils/logger"
)

// Set is the result of flattening a manifest and everything it includes.
type Set struct {
	Root        string
	Files       []*manifest.Manifest       // every reached file, load order
	Pins        map[string]*manifest.Pin   // canonical name -> pin
	Constraints map[string]*manifest.Pin   // canonical name -> constraint pin
	Directives  []*manifest.Directive      // pass-through flags from all files
	Origin      map[string]string          // canonical name -> file that pinned it
	Edges       []Edge                     // include graph
}

// Edge is one "-r"/"-c" include, From and To as cleaned paths.
type Edge struct {
	From       string
	To         string
	Constraint bool
}

// Flatten loads the manifest at path and resolves its references
// transitively. Pins from constraint files bound versions but do not add
// packages; a constraint disagreeing with a pin is a conflict.
func Flatten(path string) (*Set, error) {
	log := logger.Logger()

	set := &Set{
		Root:        filepath.Clean(path),
		Pins:        make(map[string]*manifest.Pin),
		Constraints: make(map[string]*manifest.Pin),
		Origin:      make(map[string]string),
	}
	visiting := make(map[string]bool)
	visited := make(map[string]bool)

	if err := walk(set, filepath.Clean(path), false, visiting, visited); err != nil {
		return nil, err
	}

	if err := checkConstraints(set); err != nil {
		return nil, err
	}

	log.Debugf("flattened %s: %d files, %d pins, %d constraints",
		path, len(set.Files), len(set.Pins), len(set.Constraints))
	return set, nil
}

func walk(set *Set, path string, asConstraint bool, visiting, visited map[string]bool) error {
	if visiting[path] {
		return fmt.Errorf("include cycle through %s", path)
	}
	if visited[path] {
		return nil
	}
	visiting[path] = true
	defer delete(visiting, path)

	m, err := manifest.Load(path)
	if err != nil {
		return err
	}
	visited[path] = true
	set.Files = append(set.Files, m)

	for _, e := range m.Entries {
		switch e.Kind {
		case manifest.KindPin:
			if err := addPin(set, path, e, asConstraint); err != nil {
				return err
			}
		case manifest.KindReference:
			refPath := e.Ref.Path
			if !filepath.IsAbs(refPath) {
				refPath = filepath.Join(filepath.Dir(path), refPath)
			}
			refPath = filepath.Clean(refPath)
			constraint := asConstraint || e.Ref.Kind == manifest.RefConstraint
			set.Edges = append(set.Edges, Edge{From: path, To: refPath, Constraint: e.Ref.Kind == manifest.RefConstraint})
			if err := walk(set, refPath, constraint, visiting, visited); err != nil {
				return fmt.Errorf("%s:%d: %w", path, e.Line, err)
			}
		case manifest.KindDirective:
			set.Directives = append(set.Directives, e.Directive)
		}
	}
	return nil
}

func addPin(set *Set, path string, e manifest.Entry, asConstraint bool) error {
	pin := e.Pin
	if asConstraint {
		if prev, ok := set.Constraints[pin.Canonical]; ok && prev.Version != pin.Version {
			return fmt.Errorf("%s:%d: %s constrained to both %s and %s",
				path, e.Line, pin.Canonical, prev.Version, pin.Version)
		}
		set.Constraints[pin.Canonical] = pin
		return nil
	}

	if prev, ok := set.Pins[pin.Canonical]; ok {
		if prev.Version != pin.Version {
			return fmt.Errorf("%s:%d: %s pinned to %s here but %s in %s",
				path, e.Line, pin.Canonical, pin.Version, prev.Version, set.Origin[pin.Canonical])
		}
		// Same release pinned twice: merge hash sets.
		prev.Hashes = mergeHashes(prev.Hashes, pin.Hashes)
		return nil
	}
	set.Pins[pin.Canonical] = pin
	set.Origin[pin.Canonical] = path
	return nil
}

func checkConstraints(set *Set) error {
	for name, c := range set.Constraints {
		pin, ok := set.Pins[name]
		if !ok {
			continue
		}
		if pin.Version != c.Version {
			return fmt.Errorf("%s pinned to %s but constrained to %s", name, pin.Version, c.Version)
		}
	}
	return nil
}

func mergeHashes(a, b []manifest.Hash) []manifest.Hash {
	seen := make(map[manifest.Hash]bool, len(a))
	for _, h := range a {
		seen[h] = true
	}
	for _, h := range b {
		if !seen[h] {
			a = append(a, h)
			seen[h] = true
		}
	}
	return a
}

// SortedPins returns the flattened pins ordered by canonical name.
func (s *Set) SortedPins() []*manifest.Pin {
	names := make([]string, 0, len(s.Pins))
	for name := range s.Pins {
		names = append(names, name)
	}
	sort.Strings(names)

	pins := make([]*manifest.Pin, len(names))
	for i, name := range names {
		pins[i] = s.Pins[name]
	}
	return pins
}

// Manifest renders the flattened set as a single canonical manifest.
func (s *Set) Manifest() *manifest.Manifest {
	out := &manifest.Manifest{Path: s.Root}
	for _, d := range s.Directives {
		out.Entries = append(out.Entries, manifest.Entry{Kind: manifest.KindDirective, Directive: d})
	}
	for _, p := range s.SortedPins() {
		out.Entries = append(out.Entries, manifest.Entry{Kind: manifest.KindPin, Pin: p})
	}
	return out
}
