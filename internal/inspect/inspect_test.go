package inspect

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
)

const wheelMetadata = "Metadata-Version: 2.1\nName: typing_extensions\nVersion: 4.12.2\n\nDescription body.\n"
const sdistPkgInfo = "Metadata-Version: 2.1\nName: Django\nVersion: 4.2.15\n\n"

func writeWheel(t *testing.T, dir string) string {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	w, err := zw.Create("typing_extensions-4.12.2.dist-info/METADATA")
	if err != nil {
		t.Fatalf("creating zip member: %v", err)
	}
	if _, err := w.Write([]byte(wheelMetadata)); err != nil {
		t.Fatalf("writing zip member: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing zip: %v", err)
	}

	path := filepath.Join(dir, "typing_extensions-4.12.2-py3-none-any.whl")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("writing wheel: %v", err)
	}
	return path
}

func writeSdist(t *testing.T, dir string) string {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	content := []byte(sdistPkgInfo)
	if err := tw.WriteHeader(&tar.Header{
		Name:     "Django-4.2.15/PKG-INFO",
		Mode:     0644,
		Size:     int64(len(content)),
		Typeflag: tar.TypeReg,
	}); err != nil {
		t.Fatalf("writing tar header: %v", err)
	}
	if _, err := tw.Write(content); err != nil {
		t.Fatalf("writing tar member: %v", err)
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("closing tar: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("closing gzip: %v", err)
	}

	path := filepath.Join(dir, "Django-4.2.15.tar.gz")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("writing sdist: %v", err)
	}
	return path
}

func TestPeekWheel(t *testing.T) {
	path := writeWheel(t, t.TempDir())

	info, err := Peek(path)
	if err != nil {
		t.Fatalf("peek failed: %v", err)
	}
	if info.Name != "typing_extensions" || info.Version != "4.12.2" {
		t.Errorf("unexpected identity: %+v", info)
	}
	if info.Canonical != "typing-extensions" {
		t.Errorf("expected canonical typing-extensions, got %q", info.Canonical)
	}
}

func TestPeekSdist(t *testing.T) {
	path := writeSdist(t, t.TempDir())

	info, err := Peek(path)
	if err != nil {
		t.Fatalf("peek failed: %v", err)
	}
	if info.Name != "Django" || info.Version != "4.2.15" {
		t.Errorf("unexpected identity: %+v", info)
	}
	if info.Metadata != "Django-4.2.15/PKG-INFO" {
		t.Errorf("unexpected metadata member: %q", info.Metadata)
	}
}

func TestPeekUnsupportedType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "artifact.rpm")
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	if _, err := Peek(path); err == nil {
		t.Fatal("expected error for unsupported type")
	}
}

func TestPeekMissingMetadata(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("nothing/interesting.txt")
	if err != nil {
		t.Fatalf("creating zip member: %v", err)
	}
	if _, err := w.Write([]byte("hi")); err != nil {
		t.Fatalf("writing zip member: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing zip: %v", err)
	}

	path := filepath.Join(t.TempDir(), "pkg-1.0.zip")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	if _, err := Peek(path); err == nil {
		t.Fatal("expected error for archive without metadata")
	}
}

func TestPeekCorruptArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pkg-1.0.tar.gz")
	if err := os.WriteFile(path, []byte("not gzip at all"), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	if _, err := Peek(path); err == nil {
		t.Fatal("expected error for corrupt archive")
	}
}

func TestIsMetadataMember(t *testing.T) {
	valid := []string{
		"pkg-1.0/PKG-INFO",
		"pkg-1.0.dist-info/METADATA",
	}
	for _, name := range valid {
		if !isMetadataMember(name) {
			t.Errorf("expected %q to be metadata", name)
		}
	}
	invalid := []string{
		"PKG-INFO",
		"pkg-1.0/sub/PKG-INFO",
		"pkg-1.0/METADATA",
		"pkg-1.0/setup.py",
	}
	for _, name := range invalid {
		if isMetadataMember(name) {
			t.Errorf("expected %q not to be metadata", name)
		}
	}
}
