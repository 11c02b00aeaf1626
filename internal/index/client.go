package index

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/manifest-tools/reqsmith/internal/utils/logger"
	"github.com/manifest-tools/reqsmith/internal/utils/network"
)

// DefaultBaseURL is the JSON API of the public package index.
const DefaultBaseURL = "https://pypi.org"

// Release is the index's view of one pinned version: the artifact files it
// serves and their digests.
type Release struct {
	Name    string
	Version string
	Files   []ReleaseFile
}

// ReleaseFile is one downloadable artifact of a release.
type ReleaseFile struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
	SHA256   string `json:"sha256"`
	Yanked   bool   `json:"yanked"`
}

// releaseDoc mirrors the wire shape of /pypi/<name>/<version>/json.
type releaseDoc struct {
	Info struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	} `json:"info"`
	URLs []struct {
		Filename string `json:"filename"`
		URL      string `json:"url"`
		Digests  struct {
			SHA256 string `json:"sha256"`
		} `json:"digests"`
		Yanked bool `json:"yanked"`
	} `json:"urls"`
}

// Client fetches release metadata from a package index, caching responses on
// disk zstd-compressed. A release's file list never changes once published,
// so cache entries have no expiry.
type Client struct {
	BaseURL  string
	CacheDir string
	http     *http.Client
}

// NewClient builds an index client. Empty baseURL means the public index;
// empty cacheDir disables caching.
func NewClient(baseURL, cacheDir string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL:  baseURL,
		CacheDir: cacheDir,
		http:     network.NewSecureHTTPClient(30 * time.Second),
	}
}

// Release returns the index metadata for name at version.
func (c *Client) Release(name, version string) (*Release, error) {
	log := logger.Logger()

	if data, ok := c.cacheGet(name, version); ok {
		log.Debugf("index cache hit for %s %s", name, version)
		return decodeRelease(data)
	}

	url := fmt.Sprintf("%s/pypi/%s/%s/json", c.BaseURL, name, version)
	resp, err := c.http.Get(url)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("index has no release %s %s", name, version)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: bad status %s", url, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("reading index response: %w", err)
	}

	rel, err := decodeRelease(data)
	if err != nil {
		return nil, err
	}
	c.cachePut(name, version, data)
	return rel, nil
}

func decodeRelease(data []byte) (*Release, error) {
	var doc releaseDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding index response: %w", err)
	}

	rel := &Release{Name: doc.Info.Name, Version: doc.Info.Version}
	for _, u := range doc.URLs {
		rel.Files = append(rel.Files, ReleaseFile{
			Filename: u.Filename,
			URL:      u.URL,
			SHA256:   u.Digests.SHA256,
			Yanked:   u.Yanked,
		})
	}
	return rel, nil
}

func (c *Client) cachePath(name, version string) string {
	return filepath.Join(c.CacheDir, fmt.Sprintf("%s-%s.json.zst", name, version))
}

func (c *Client) cacheGet(name, version string) ([]byte, bool) {
	if c.CacheDir == "" {
		return nil, false
	}
	f, err := os.Open(c.cachePath(name, version))
	if err != nil {
		return nil, false
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, false
	}
	defer dec.Close()

	data, err := io.ReadAll(dec)
	if err != nil {
		return nil, false
	}
	return data, true
}

func (c *Client) cachePut(name, version string, data []byte) {
	log := logger.Logger()
	if c.CacheDir == "" {
		return
	}
	if err := os.MkdirAll(c.CacheDir, 0755); err != nil {
		log.Warnf("creating index cache dir: %v", err)
		return
	}

	f, err := os.Create(c.cachePath(name, version))
	if err != nil {
		log.Warnf("writing index cache entry: %v", err)
		return
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f)
	if err != nil {
		log.Warnf("creating zstd writer: %v", err)
		return
	}
	if _, err := enc.Write(data); err != nil {
		log.Warnf("writing index cache entry: %v", err)
	}
	if err := enc.Close(); err != nil {
		log.Warnf("closing index cache entry: %v", err)
	}
}
