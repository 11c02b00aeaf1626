package resolve

import (
	"fmt"
	"io"
	"path/filepath"
)

// Dot writes the include graph of a flattened set in Graphviz DOT form.
// Requirement includes are solid edges, constraint includes dashed.
func Dot(w io.Writer, set *Set) error {
	if _, err := fmt.Fprintln(w, "digraph requirements {"); err != nil {
		return err
	}
	fmt.Fprintln(w, "  rankdir=LR;")
	fmt.Fprintln(w, "  node [shape=box];")

	for _, m := range set.Files {
		pinCount := len(m.Pins())
		fmt.Fprintf(w, "  %q [label=\"%s\\n%d pins\"];\n",
			m.Path, filepath.Base(m.Path), pinCount)
	}
	for _, e := range set.Edges {
		style := "solid"
		if e.Constraint {
			style = "dashed"
		}
		fmt.Fprintf(w, "  %q -> %q [style=%s];\n", e.From, e.To, style)
	}

	_, err := fmt.Fprintln(w, "}")
	return err
}
