// Package job runs the climprep batch jobs end to end: discover inputs,
// transform them, write one output file.
package job

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/rtm0/climprep/internal/ncout"
	"github.com/rtm0/climprep/internal/observability"
)

// writeOutput creates the parent directory of path and writes f to it,
// recording the file size.
func writeOutput(path string, f *ncout.File, metrics *observability.Metrics) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := ncout.Write(path, f); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fi, err := os.Stat(path)
	if err != nil {
		return err
	}
	metrics.OutputBytes.Set(float64(fi.Size()))
	return nil
}

// finish records the run duration and, on success, its completion time.
func finish(logger *slog.Logger, metrics *observability.Metrics, task string, start time.Time, err error) {
	elapsed := time.Since(start)
	metrics.JobDuration.Set(elapsed.Seconds())
	if err != nil {
		return
	}
	metrics.LastSuccess.SetToCurrentTime()
	logger.Info("job complete", "task", task, "in", elapsed.Round(time.Millisecond))
}
