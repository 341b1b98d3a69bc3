package job

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rtm0/climprep/internal/config"
	"github.com/rtm0/climprep/internal/earthdata"
	"github.com/rtm0/climprep/internal/observability"
	"github.com/rtm0/climprep/internal/progress"
)

// RunDownload searches CMR for the configured collection and time range and
// downloads every granule into cfg.Dir.
func RunDownload(ctx context.Context, cfg *config.DownloadConfig, logger *slog.Logger, metrics *observability.Metrics) (err error) {
	start := time.Now()
	defer func() { finish(logger, metrics, config.Download, start, err) }()

	creds, err := earthdata.LoadCredentials(earthdata.Credentials{
		Token:    cfg.Token,
		Username: cfg.Username,
		Password: cfg.Password,
	}, cfg.NetrcPath)
	if err != nil {
		return err
	}
	cli, err := earthdata.NewClient(logger, cfg.CMRURL, cfg.Concurrency, creds)
	if err != nil {
		return fmt.Errorf("create Earthdata client: %w", err)
	}

	q := earthdata.Query{ShortName: cfg.ShortName, Start: cfg.Start, End: cfg.End}
	granules, err := cli.Search(ctx, q)
	if err != nil {
		return err
	}
	logger.Info("CMR search", "shortName", q.ShortName,
		"start", q.Start.Format(time.DateOnly), "end", q.End.Format(time.DateOnly), "granules", len(granules))
	if len(granules) == 0 {
		return fmt.Errorf("no %s granules between %s and %s", q.ShortName, q.Start.Format(time.DateOnly), q.End.Format(time.DateOnly))
	}

	total := 0
	for _, g := range granules {
		total += len(g.URLs)
	}
	prog := progress.New(logger, "downloads", total, cfg.Progress)
	res, err := cli.Download(ctx, granules, cfg.Dir, func(name string, skipped bool) {
		if skipped {
			metrics.FilesSkipped.Inc()
		} else {
			metrics.FilesDownloaded.Inc()
		}
		prog.Add(1, name)
	})
	prog.Done()
	metrics.BytesDownloaded.Add(float64(res.Bytes))
	if err != nil {
		return err
	}
	logger.Info("downloaded granules", "dir", cfg.Dir, "downloaded", res.Downloaded, "skipped", res.Skipped, "bytes", res.Bytes)
	return nil
}
