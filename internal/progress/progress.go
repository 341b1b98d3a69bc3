// Package progress reports how far a batch job has got through its inputs.
package progress

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gosuri/uiprogress"
	"github.com/jonboulle/clockwork"
)

// Reporter is told about every completed unit of work.
type Reporter interface {
	// Add records n more completed units. It is safe for concurrent use.
	Add(n int, label string)
	// Done releases any resources held by the reporter.
	Done()
}

// New returns a terminal progress bar when bar is set, and a Log reporter
// otherwise.
func New(logger *slog.Logger, what string, total int, bar bool) Reporter {
	if bar {
		return NewBar(what, total)
	}
	return NewLog(logger, clockwork.NewRealClock(), what, total)
}

// Log writes one log line per update with the completed percentage and the
// elapsed time.
type Log struct {
	logger *slog.Logger
	clock  clockwork.Clock
	what   string
	total  float64
	start  time.Time

	mu   sync.Mutex
	done float64
}

// NewLog creates a Log reporter for total units of work.
func NewLog(logger *slog.Logger, clock clockwork.Clock, what string, total int) *Log {
	return &Log{
		logger: logger,
		clock:  clock,
		what:   what,
		total:  float64(total),
		start:  clock.Now(),
	}
}

func (l *Log) Add(n int, label string) {
	l.mu.Lock()
	l.done += float64(n)
	done := l.done
	l.mu.Unlock()

	percent := "100.00%"
	if l.total > 0 {
		percent = fmt.Sprintf("%.2f%%", 100*done/l.total)
	}
	duration := l.clock.Since(l.start).Round(1 * time.Second)
	l.logger.Info("progress", "what", l.what, "item", label, "done", percent, "in", duration)
}

func (l *Log) Done() {}

// Bar draws a terminal progress bar.
type Bar struct {
	progress *uiprogress.Progress
	bar      *uiprogress.Bar

	mu    sync.Mutex
	label string
}

// NewBar starts a progress bar for total units of work.
func NewBar(what string, total int) *Bar {
	b := &Bar{progress: uiprogress.New(), label: what}
	b.bar = b.progress.AddBar(total).AppendCompleted().PrependElapsed()
	b.bar.PrependFunc(func(*uiprogress.Bar) string {
		b.mu.Lock()
		defer b.mu.Unlock()
		return b.label
	})
	b.progress.Start()
	return b
}

func (b *Bar) Add(n int, label string) {
	b.mu.Lock()
	b.label = label
	b.mu.Unlock()
	for range n {
		b.bar.Incr()
	}
}

func (b *Bar) Done() {
	b.progress.Stop()
}
