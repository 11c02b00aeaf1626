package fetch

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

// Files downloads the given URLs into destDir using a pool of workers.
// It shows a single progress bar tracking files completed vs total. Any
// failed download fails the whole run after all workers drain.
func Files(urls []string, destDir string, workers int) error {
	logger := zap.L().Sugar()

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("creating destination directory %s: %w", destDir, err)
	}
	if workers < 1 {
		workers = 1
	}

	total := len(urls)
	jobs := make(chan string, total)
	errs := make(chan error, total)
	var wg sync.WaitGroup

	// create a single progress bar for total files
	bar := progressbar.NewOptions(total,
		progressbar.OptionFullWidth(),
		progressbar.OptionShowDescriptionAtLineEnd(),
		progressbar.OptionSetDescription("downloading"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(100*time.Millisecond),
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for url := range jobs {
				name := path.Base(url)
				bar.Describe(fmt.Sprintf("downloading %s", name))

				if err := fetchOne(url, filepath.Join(destDir, name)); err != nil {
					logger.Errorf("downloading %s failed: %v", url, err)
					errs <- fmt.Errorf("downloading %s: %w", url, err)
				}
				bar.Add(1)
			}
		}()
	}

	for _, u := range urls {
		jobs <- u
	}
	close(jobs)

	wg.Wait()
	bar.Finish()
	close(errs)

	// first error wins
	for err := range errs {
		return err
	}
	return nil
}

// fetchOne writes the body to a temp file first so a failed download never
// leaves a truncated artifact behind.
func fetchOne(url, destPath string) error {
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bad status: %s", resp.Status)
	}

	tmp, err := os.CreateTemp(filepath.Dir(destPath), ".fetch-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), destPath)
}
