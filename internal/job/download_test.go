package job

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rtm0/climprep/internal/config"
	"github.com/rtm0/climprep/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCMR(t *testing.T, names ...string) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/granules.json" {
			if r.Header.Get("Authorization") != "Bearer tok" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			fmt.Fprint(w, filepath.Base(r.URL.Path))
			return
		}
		var entries []map[string]any
		for _, n := range names {
			entries = append(entries, map[string]any{
				"id":    n,
				"title": n,
				"links": []map[string]any{{"rel": "http://esipfed.org/ns/fedsearch/1.1/data#", "href": srv.URL + "/data/" + n}},
			})
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"feed": map[string]any{"entry": entries}})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func downloadConfig(cmrURL, dir string) *config.DownloadConfig {
	return &config.DownloadConfig{
		ShortName:   "M2SDNXSLV",
		Start:       time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		End:         time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC),
		Dir:         dir,
		Concurrency: 2,
		CMRURL:      cmrURL,
		Token:       "tok",
	}
}

func TestRunDownload(t *testing.T) {
	srv := newCMR(t, "a.nc4", "b.nc4", "c.nc4")
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.nc4"), []byte("already here"), 0o644))
	metrics := observability.NewMetrics()

	err := RunDownload(context.Background(), downloadConfig(srv.URL, dir), slog.Default(), metrics)
	require.NoError(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.FilesDownloaded))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.FilesSkipped))
	assert.Equal(t, float64(len("a.nc4")+len("b.nc4")), testutil.ToFloat64(metrics.BytesDownloaded))

	got, err := os.ReadFile(filepath.Join(dir, "b.nc4"))
	require.NoError(t, err)
	assert.Equal(t, "b.nc4", string(got))
}

func TestRunDownload_NoGranules(t *testing.T) {
	srv := newCMR(t)
	err := RunDownload(context.Background(), downloadConfig(srv.URL, t.TempDir()), slog.Default(), observability.NewMetrics())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no M2SDNXSLV granules")
}

func TestRunDownload_NoCredentials(t *testing.T) {
	cfg := downloadConfig("http://127.0.0.1:1", t.TempDir())
	cfg.Token = ""
	cfg.NetrcPath = filepath.Join(t.TempDir(), "missing")
	err := RunDownload(context.Background(), cfg, slog.Default(), observability.NewMetrics())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "credentials")
}
