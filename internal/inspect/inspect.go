package inspect

import (
	"archive/tar"
	"archive/zip"
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"

	"github.com/manifest-tools/reqsmith/internal/manifest"
	"github.com/manifest-tools/reqsmith/internal/utils/logger"
)

// Info is the distribution identity read out of an artifact's metadata file.
type Info struct {
	Name      string
	Canonical string
	Version   string
	Metadata  string // archive member the identity came from
}

// Peek opens a local artifact and extracts distribution name and version
// from its METADATA (wheels) or PKG-INFO (sdists). Supported containers:
// .whl/.zip, .tar.gz, .tar.xz, .tar.zst.
func Peek(path string) (*Info, error) {
	log := logger.Logger()

	lower := strings.ToLower(path)
	var (
		info *Info
		err  error
	)
	switch {
	case strings.HasSuffix(lower, ".whl") || strings.HasSuffix(lower, ".zip"):
		info, err = peekZip(path)
	case strings.HasSuffix(lower, ".tar.gz") || strings.HasSuffix(lower, ".tgz"):
		info, err = peekTar(path, func(r io.Reader) (io.Reader, error) {
			return gzip.NewReader(r)
		})
	case strings.HasSuffix(lower, ".tar.xz"):
		info, err = peekTar(path, func(r io.Reader) (io.Reader, error) {
			return xz.NewReader(r)
		})
	case strings.HasSuffix(lower, ".tar.zst"):
		info, err = peekTar(path, func(r io.Reader) (io.Reader, error) {
			return zstd.NewReader(r)
		})
	default:
		return nil, fmt.Errorf("unsupported artifact type: %s", path)
	}
	if err != nil {
		return nil, err
	}

	log.Debugf("%s identifies as %s %s (from %s)", path, info.Name, info.Version, info.Metadata)
	return info, nil
}

func peekZip(path string) (*Info, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if !isMetadataMember(f.Name) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("reading %s from %s: %w", f.Name, path, err)
		}
		info, err := parseMetadata(rc, f.Name)
		rc.Close()
		if err != nil {
			return nil, err
		}
		return info, nil
	}
	return nil, fmt.Errorf("no METADATA or PKG-INFO found in %s", path)
}

func peekTar(path string, open func(io.Reader) (io.Reader, error)) (*Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	dec, err := open(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("decompressing %s: %w", path, err)
	}
	if c, ok := dec.(io.Closer); ok {
		defer c.Close()
	}

	tr := tar.NewReader(dec)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading tar %s: %w", path, err)
		}
		if hdr.Typeflag != tar.TypeReg || !isMetadataMember(hdr.Name) {
			continue
		}
		return parseMetadata(tr, hdr.Name)
	}
	return nil, fmt.Errorf("no METADATA or PKG-INFO found in %s", path)
}

// isMetadataMember matches the identity files at the conventional depth:
// "<dist>-<ver>/PKG-INFO" in sdists, "<dist>.dist-info/METADATA" in wheels.
func isMetadataMember(name string) bool {
	name = strings.TrimPrefix(name, "./")
	parts := strings.Split(name, "/")
	if len(parts) != 2 {
		return false
	}
	if parts[1] == "PKG-INFO" {
		return true
	}
	return parts[1] == "METADATA" && strings.HasSuffix(parts[0], ".dist-info")
}

// parseMetadata reads the RFC 822 style headers of METADATA/PKG-INFO up to
// the first blank line.
func parseMetadata(r io.Reader, member string) (*Info, error) {
	info := &Info{Metadata: member}

	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for s.Scan() {
		line := s.Text()
		if line == "" {
			break
		}
		if v, ok := strings.CutPrefix(line, "Name: "); ok {
			info.Name = strings.TrimSpace(v)
		}
		if v, ok := strings.CutPrefix(line, "Version: "); ok {
			info.Version = strings.TrimSpace(v)
		}
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", member, err)
	}
	if info.Name == "" || info.Version == "" {
		return nil, fmt.Errorf("%s lacks Name or Version headers", member)
	}
	info.Canonical = manifest.Normalize(info.Name)
	return info, nil
}
