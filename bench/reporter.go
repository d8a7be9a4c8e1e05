package bench

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

// Reporter receives human-readable status lines from a run.
type Reporter interface {
	Report(line string)
}

type ReporterFunc func(line string)

func (f ReporterFunc) Report(line string) { f(line) }

// Observer is notified after every operation attempt.
type Observer interface {
	Observe(system string, d time.Duration, err error)
}

type nopReporter struct{}

func (nopReporter) Report(string) {}

// WriterReporter prints each line to w, prefixed with the system name.
type WriterReporter struct {
	mu     sync.Mutex
	w      io.Writer
	prefix string
}

func NewWriterReporter(w io.Writer, system string) *WriterReporter {
	prefix := ""
	if system != "" {
		prefix = "[" + system + "] "
	}
	return &WriterReporter{w: w, prefix: prefix}
}

func (r *WriterReporter) Report(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.w, "  %s%s\n", r.prefix, line)
}

// LogReporter forwards lines to a structured logger at info level.
type LogReporter struct {
	Logger *slog.Logger
}

func (r LogReporter) Report(line string) {
	r.Logger.Info(line)
}

// MultiReporter fans a line out to several reporters in order.
type MultiReporter []Reporter

func (m MultiReporter) Report(line string) {
	for _, r := range m {
		if r != nil {
			r.Report(line)
		}
	}
}
