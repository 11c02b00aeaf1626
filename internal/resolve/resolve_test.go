package resolve

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestFlattenTransitiveIncludes(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "base.txt", "django==4.2.15\n")
	writeTestFile(t, dir, "prod.txt", "-r base.txt\npsycopg2==2.9.9\n")
	root := writeTestFile(t, dir, "dev.txt", "-r prod.txt\npytest==8.3.2\n")

	set, err := Flatten(root)
	if err != nil {
		t.Fatalf("flatten failed: %v", err)
	}
	if len(set.Files) != 3 {
		t.Errorf("expected 3 files, got %d", len(set.Files))
	}
	if len(set.Pins) != 3 {
		t.Errorf("expected 3 pins, got %d", len(set.Pins))
	}
	if _, ok := set.Pins["django"]; !ok {
		t.Error("expected django from transitive include")
	}
	if origin := set.Origin["django"]; filepath.Base(origin) != "base.txt" {
		t.Errorf("expected django pinned in base.txt, got %s", origin)
	}
}

func TestFlattenDetectsCycle(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "a.txt", "-r b.txt\n")
	writeTestFile(t, dir, "b.txt", "-r a.txt\n")

	_, err := Flatten(filepath.Join(dir, "a.txt"))
	if err == nil {
		t.Fatal("expected cycle error")
	}
	if !strings.Contains(err.Error(), "cycle") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFlattenDetectsVersionConflict(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "base.txt", "django==4.2.15\n")
	root := writeTestFile(t, dir, "prod.txt", "-r base.txt\nDjango==5.0.1\n")

	_, err := Flatten(root)
	if err == nil {
		t.Fatal("expected conflict error")
	}
	if !strings.Contains(err.Error(), "django") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFlattenMergesHashesForSamePin(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "base.txt",
		"django==4.2.15 --hash=sha256:"+strings.Repeat("a", 64)+"\n")
	root := writeTestFile(t, dir, "prod.txt",
		"-r base.txt\ndjango==4.2.15 --hash=sha256:"+strings.Repeat("b", 64)+"\n")

	set, err := Flatten(root)
	if err != nil {
		t.Fatalf("flatten failed: %v", err)
	}
	pin := set.Pins["django"]
	if len(pin.Hashes) != 2 {
		t.Errorf("expected merged hash set of 2, got %d", len(pin.Hashes))
	}
}

func TestFlattenMissingInclude(t *testing.T) {
	dir := t.TempDir()
	root := writeTestFile(t, dir, "prod.txt", "-r missing.txt\n")

	_, err := Flatten(root)
	if err == nil {
		t.Fatal("expected error for missing include")
	}
	if !strings.Contains(err.Error(), "prod.txt:1") {
		t.Errorf("expected referrer position in error, got: %v", err)
	}
}

func TestFlattenConstraintsDoNotAddPackages(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "constraints.txt", "urllib3==2.2.2\n")
	root := writeTestFile(t, dir, "prod.txt", "-c constraints.txt\ndjango==4.2.15\n")

	set, err := Flatten(root)
	if err != nil {
		t.Fatalf("flatten failed: %v", err)
	}
	if _, ok := set.Pins["urllib3"]; ok {
		t.Error("constraint file must not add pins")
	}
	if _, ok := set.Constraints["urllib3"]; !ok {
		t.Error("expected urllib3 tracked as constraint")
	}
}

func TestFlattenConstraintConflict(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "constraints.txt", "django==5.0.1\n")
	root := writeTestFile(t, dir, "prod.txt", "-c constraints.txt\ndjango==4.2.15\n")

	if _, err := Flatten(root); err == nil {
		t.Fatal("expected constraint conflict error")
	}
}

func TestSetManifestIsSortedAndParseable(t *testing.T) {
	dir := t.TempDir()
	root := writeTestFile(t, dir, "prod.txt",
		"--no-binary psycopg2\nzope.interface==6.4\nDjango==4.2.15\n")

	set, err := Flatten(root)
	if err != nil {
		t.Fatalf("flatten failed: %v", err)
	}
	pins := set.Manifest().Pins()
	if len(pins) != 2 {
		t.Fatalf("expected 2 pins, got %d", len(pins))
	}
	if pins[0].Canonical != "django" || pins[1].Canonical != "zope-interface" {
		t.Errorf("expected sorted pins, got %s then %s", pins[0].Canonical, pins[1].Canonical)
	}
}

func TestDotOutput(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "base.txt", "django==4.2.15\n")
	root := writeTestFile(t, dir, "prod.txt", "-r base.txt\n")

	set, err := Flatten(root)
	if err != nil {
		t.Fatalf("flatten failed: %v", err)
	}

	var b strings.Builder
	if err := Dot(&b, set); err != nil {
		t.Fatalf("dot failed: %v", err)
	}
	out := b.String()
	if !strings.HasPrefix(out, "digraph requirements {") {
		t.Errorf("unexpected dot header: %q", out)
	}
	if !strings.Contains(out, "base.txt") {
		t.Errorf("expected base.txt node in dot output:\n%s", out)
	}
	if !strings.Contains(out, "->") {
		t.Errorf("expected an edge in dot output:\n%s", out)
	}
}
