package earthdata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Result counts the outcome of a Download.
type Result struct {
	Downloaded int
	Skipped    int
	Bytes      int64
}

// Download fetches every data URL of granules into dir. Files that already
// exist in dir are skipped. The first failure cancels the remaining
// downloads and is returned. onFile, if not nil, is called once per file,
// possibly concurrently.
func (c *Client) Download(ctx context.Context, granules []Granule, dir string, onFile func(name string, skipped bool)) (Result, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Result{}, err
	}

	type job struct{ url, name string }
	var jobs []job
	for _, gr := range granules {
		for _, rawURL := range gr.URLs {
			name, err := fileName(rawURL)
			if err != nil {
				return Result{}, fmt.Errorf("granule %s: %w", gr.ID, err)
			}
			jobs = append(jobs, job{rawURL, name})
		}
	}

	var downloaded, skipped, bytes atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.maxConns)
	for _, j := range jobs {
		dst := filepath.Join(dir, j.name)
		g.Go(func() error {
			if _, err := os.Stat(dst); err == nil {
				skipped.Add(1)
				if onFile != nil {
					onFile(j.name, true)
				}
				return nil
			}
			n, err := c.fetch(ctx, j.url, dst)
			if err != nil {
				return fmt.Errorf("download %s: %w", j.url, err)
			}
			downloaded.Add(1)
			bytes.Add(n)
			if onFile != nil {
				onFile(j.name, false)
			}
			return nil
		})
	}
	err := g.Wait()
	return Result{
		Downloaded: int(downloaded.Load()),
		Skipped:    int(skipped.Load()),
		Bytes:      bytes.Load(),
	}, err
}

func fileName(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	name := path.Base(u.Path)
	if name == "/" || name == "." {
		return "", fmt.Errorf("no file name in %q", rawURL)
	}
	return name, nil
}

// fetch streams rawURL into a temporary file next to dst and renames it into
// place once complete.
func (c *Client) fetch(ctx context.Context, rawURL, dst string) (_ int64, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, err
	}
	c.authorize(req, req.URL.Host)
	res, err := c.httpCli.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() {
		if _, derr := io.Copy(io.Discard, res.Body); derr != nil {
			c.logger.Debug("Failed to drain response body", "err", derr)
		}
		res.Body.Close()
	}()
	if res.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status %d", res.StatusCode)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), filepath.Base(dst)+".*.part")
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()
	n, err := io.Copy(tmp, res.Body)
	if err != nil {
		return 0, err
	}
	if err := tmp.Close(); err != nil {
		return 0, err
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return 0, err
	}
	c.logger.Debug("downloaded", "file", dst, "bytes", n)
	return n, nil
}
