package index

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/manifest-tools/reqsmith/internal/resolve"
)

const djangoDigest = "61ee4a130efb8c451ef3467c67ca99fdce400fedd768634efc86a68c18d80d30"
const djangoSdistDigest = "c77f3cdb300194e4ffa7a31d1d1b0afea35a31870a21da42458d5bbf87ecfafb"

func releaseJSON(name, version string) string {
	return fmt.Sprintf(`{
		"info": {"name": %q, "version": %q},
		"urls": [
			{"filename": "%s-%s-py3-none-any.whl",
			 "url": "https://files.example/%s-%s-py3-none-any.whl",
			 "digests": {"sha256": %q}},
			{"filename": "%s-%s.tar.gz",
			 "url": "https://files.example/%s-%s.tar.gz",
			 "digests": {"sha256": %q}}
		]
	}`, name, version,
		name, version, name, version, djangoDigest,
		name, version, name, version, djangoSdistDigest)
}

func newIndexServer(t *testing.T, hits *atomic.Int64) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		if len(parts) != 4 || parts[0] != "pypi" || parts[3] != "json" {
			http.NotFound(w, r)
			return
		}
		if parts[1] == "gone" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, releaseJSON(parts[1], parts[2]))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClientRelease(t *testing.T) {
	srv := newIndexServer(t, nil)
	c := NewClient(srv.URL, "")

	rel, err := c.Release("django", "4.2.15")
	if err != nil {
		t.Fatalf("release lookup failed: %v", err)
	}
	if rel.Name != "django" || rel.Version != "4.2.15" {
		t.Errorf("unexpected release identity: %+v", rel)
	}
	if len(rel.Files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(rel.Files))
	}
	if rel.Files[0].SHA256 != djangoDigest {
		t.Errorf("unexpected digest: %s", rel.Files[0].SHA256)
	}
}

func TestClientNotFound(t *testing.T) {
	srv := newIndexServer(t, nil)
	c := NewClient(srv.URL, "")

	_, err := c.Release("gone", "1.0")
	if err == nil {
		t.Fatal("expected error for unknown release")
	}
	if !strings.Contains(err.Error(), "no release") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestClientCachesResponses(t *testing.T) {
	var hits atomic.Int64
	srv := newIndexServer(t, &hits)
	cacheDir := t.TempDir()
	c := NewClient(srv.URL, cacheDir)

	if _, err := c.Release("django", "4.2.15"); err != nil {
		t.Fatalf("first lookup failed: %v", err)
	}
	if _, err := c.Release("django", "4.2.15"); err != nil {
		t.Fatalf("second lookup failed: %v", err)
	}
	if hits.Load() != 1 {
		t.Errorf("expected 1 upstream hit, got %d", hits.Load())
	}

	entries, err := os.ReadDir(cacheDir)
	if err != nil {
		t.Fatalf("reading cache dir: %v", err)
	}
	if len(entries) != 1 || !strings.HasSuffix(entries[0].Name(), ".json.zst") {
		t.Errorf("expected one compressed cache entry, got %v", entries)
	}
}

func TestClientDefaultBaseURL(t *testing.T) {
	c := NewClient("", "")
	if c.BaseURL != DefaultBaseURL {
		t.Errorf("expected default base URL, got %q", c.BaseURL)
	}
}

func flattenFixture(t *testing.T, content string) *resolve.Set {
	t.Helper()
	path := filepath.Join(t.TempDir(), "requirements.txt")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing manifest: %v", err)
	}
	set, err := resolve.Flatten(path)
	if err != nil {
		t.Fatalf("flatten failed: %v", err)
	}
	return set
}

func TestAuditFullyCoveredPin(t *testing.T) {
	srv := newIndexServer(t, nil)
	c := NewClient(srv.URL, "")

	set := flattenFixture(t,
		"django==4.2.15 --hash=sha256:"+djangoDigest+" --hash=sha256:"+djangoSdistDigest+"\n")

	results := Audit(c, set)
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Outcome != AuditOK {
		t.Errorf("expected ok, got %s (err: %v)", results[0].Outcome, results[0].Err)
	}
	if len(results[0].Covered) != 2 {
		t.Errorf("expected 2 covered files, got %d", len(results[0].Covered))
	}
}

func TestAuditUnknownHash(t *testing.T) {
	srv := newIndexServer(t, nil)
	c := NewClient(srv.URL, "")

	bogus := strings.Repeat("f", 64)
	set := flattenFixture(t, "django==4.2.15 --hash=sha256:"+bogus+"\n")

	results := Audit(c, set)
	if results[0].Outcome != AuditUnknownHash {
		t.Errorf("expected unknownhash, got %s", results[0].Outcome)
	}
	if len(results[0].UnknownHashes) != 1 || results[0].UnknownHashes[0] != bogus {
		t.Errorf("unexpected unknown hashes: %v", results[0].UnknownHashes)
	}
}

func TestAuditUncoveredArtifact(t *testing.T) {
	srv := newIndexServer(t, nil)
	c := NewClient(srv.URL, "")

	// Pin only the wheel digest; the sdist stays uncovered.
	set := flattenFixture(t, "django==4.2.15 --hash=sha256:"+djangoDigest+"\n")

	results := Audit(c, set)
	if results[0].Outcome != AuditUncovered {
		t.Errorf("expected uncovered, got %s", results[0].Outcome)
	}
	if len(results[0].Uncovered) != 1 {
		t.Errorf("expected 1 uncovered file, got %d", len(results[0].Uncovered))
	}
}

func TestAuditUnreachableDoesNotAbort(t *testing.T) {
	srv := newIndexServer(t, nil)
	c := NewClient(srv.URL, "")

	set := flattenFixture(t,
		"gone==1.0 --hash=sha256:"+strings.Repeat("a", 64)+"\n"+
			"django==4.2.15 --hash=sha256:"+djangoDigest+" --hash=sha256:"+djangoSdistDigest+"\n")

	results := Audit(c, set)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	// Results come back sorted by canonical name.
	if results[0].Pin.Canonical != "django" || results[0].Outcome != AuditOK {
		t.Errorf("django should audit ok, got %s", results[0].Outcome)
	}
	if results[1].Pin.Canonical != "gone" || results[1].Outcome != AuditUnreachable {
		t.Errorf("gone should be unreachable, got %s", results[1].Outcome)
	}
}

func TestDownloadURLs(t *testing.T) {
	srv := newIndexServer(t, nil)
	c := NewClient(srv.URL, "")

	set := flattenFixture(t, "django==4.2.15 --hash=sha256:"+djangoDigest+"\n")
	urls := DownloadURLs(Audit(c, set))
	if len(urls) != 1 {
		t.Fatalf("expected 1 url, got %d", len(urls))
	}
	if !strings.HasSuffix(urls[0], ".whl") {
		t.Errorf("expected the pinned wheel url, got %q", urls[0])
	}
}
