package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Fetcher resolves an input reference (local path or http URL) into a
// local audio file. Downloads are synchronous with no retries.
type Fetcher struct {
	client *http.Client
}

func NewFetcher() *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: 5 * time.Minute},
	}
}

// Fetch returns a local path for ref. URLs are downloaded to dst inside
// the request workspace; anything else is treated as an existing local
// file and returned as-is.
func (f *Fetcher) Fetch(ctx context.Context, ref, dst string) (string, error) {
	if strings.HasPrefix(ref, "http") {
		if err := f.download(ctx, ref, dst); err != nil {
			return "", err
		}
		return dst, nil
	}

	if _, err := os.Stat(ref); err != nil {
		return "", fmt.Errorf("audio file not accessible: %w", err)
	}
	return ref, nil
}

func (f *Fetcher) download(ctx context.Context, src, dst string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return fmt.Errorf("bad audio URL: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed: unexpected status %s", resp.Status)
	}

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create download file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	return nil
}

// Base derives a filename for the downloaded copy from the reference,
// ignoring any query string.
func Base(ref string) string {
	name := ref
	if strings.HasPrefix(ref, "http") {
		if u, err := url.Parse(ref); err == nil {
			name = u.Path
		}
	}
	name = filepath.Base(name)
	if name == "." || name == "/" || name == "" {
		return "input.mp3"
	}
	return name
}
