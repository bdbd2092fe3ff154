package fetcher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pfrederiksen/ae-data/internal/logger"
	"github.com/pfrederiksen/ae-data/internal/storage"
	"golang.org/x/time/rate"
)

// HTTPError reports a non-2xx download response.
type HTTPError struct {
	URL        string
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("downloading %s: unexpected status code: %d", e.URL, e.StatusCode)
}

// Recorder receives an entry for every file written.
type Recorder interface {
	Record(entry *storage.Entry) error
}

// Fetcher downloads CSV resources one at a time
type Fetcher struct {
	client   *resty.Client
	limiter  *rate.Limiter
	recorder Recorder
}

// New creates a Fetcher using client. A requestsPerSecond of zero or less
// disables pacing. recorder may be nil.
func New(client *resty.Client, requestsPerSecond float64, recorder Recorder) *Fetcher {
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}

	return &Fetcher{
		client:   client,
		limiter:  rate.NewLimiter(limit, 1),
		recorder: recorder,
	}
}

// FileName returns the local file name for a resource URL: the last element
// of its path, without any query string.
func FileName(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parsing URL: %w", err)
	}

	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		return "", fmt.Errorf("no file name in URL: %s", rawURL)
	}
	return name, nil
}

// Download fetches rawURL and writes it to targetDir, returning the local path.
func (f *Fetcher) Download(ctx context.Context, rawURL, targetDir string) (string, error) {
	name, err := FileName(rawURL)
	if err != nil {
		return "", err
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("waiting for rate limiter: %w", err)
	}

	start := time.Now()
	resp, err := f.client.R().SetContext(ctx).Get(rawURL)
	if err != nil {
		return "", fmt.Errorf("downloading %s: %w", rawURL, err)
	}
	if !resp.IsSuccess() {
		return "", &HTTPError{URL: rawURL, StatusCode: resp.StatusCode()}
	}
	logger.RecordTiming("download", time.Since(start))

	body := resp.Body()
	target := filepath.Join(targetDir, name)
	if err := os.WriteFile(target, body, 0644); err != nil {
		return "", fmt.Errorf("writing %s: %w", target, err)
	}

	logger.IncrCounter("downloads")
	logger.AddCounter("downloads.bytes", int64(len(body)))

	if f.recorder != nil {
		sum := sha256.Sum256(body)
		entry := &storage.Entry{
			FileName:     name,
			URL:          rawURL,
			Size:         int64(len(body)),
			SHA256:       hex.EncodeToString(sum[:]),
			DownloadedAt: time.Now().UTC(),
		}
		if err := f.recorder.Record(entry); err != nil {
			return "", fmt.Errorf("recording %s: %w", name, err)
		}
	}

	return target, nil
}
