package job

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/rtm0/climprep/internal/chirps"
	"github.com/rtm0/climprep/internal/config"
	"github.com/rtm0/climprep/internal/observability"
	"github.com/rtm0/climprep/internal/progress"
)

// RunCHIRPS stacks the monthly CHIRPS rasters of cfg.DataDir along time and
// writes them to cfg.Output.
func RunCHIRPS(cfg *config.CHIRPSConfig, logger *slog.Logger, metrics *observability.Metrics) (err error) {
	start := time.Now()
	defer func() { finish(logger, metrics, config.CHIRPS, start, err) }()

	entries, err := chirps.Discover(cfg.DataDir)
	if err != nil {
		return err
	}
	logger.Info("stacking CHIRPS rasters", "dir", cfg.DataDir, "files", len(entries),
		"first", entries[0].Date.Format("2006-01"), "last", entries[len(entries)-1].Date.Format("2006-01"))

	prog := progress.New(logger, "rasters", len(entries), cfg.Progress)
	stack, err := chirps.Build(entries, cfg.TmpDir, func(e chirps.Entry) {
		metrics.FilesRead.Inc()
		prog.Add(1, filepath.Base(e.Path))
	})
	prog.Done()
	if err != nil {
		return fmt.Errorf("stack CHIRPS rasters: %w", err)
	}

	if err := writeOutput(cfg.Output, stack.NetCDF(cfg.Deflate), metrics); err != nil {
		return err
	}
	logger.Info("wrote CHIRPS stack", "file", cfg.Output, "timeCnt", len(stack.Dates), "yCnt", len(stack.Y), "xCnt", len(stack.X))
	return nil
}
