package cli

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created.
// Example output: "Composed magazine (1.234s)"
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

// runLogger returns a logger writing to both the CLI's log stream and
// compose_debug.log beside the plan, at the CLI's level. The debug file is
// truncated per run. When it cannot be created the CLI logger is returned
// with a no-op closer.
func (c *CLI) runLogger(planPath string) (*log.Logger, func() error) {
	path := filepath.Join(filepath.Dir(planPath), debugLogName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		c.Logger.Warn("debug log unavailable", "path", path, "err", err)
		return c.Logger, func() error { return nil }
	}
	out := c.logOut
	if out == nil {
		out = os.Stderr
	}
	return newLogger(io.MultiWriter(out, f), c.Logger.GetLevel()), f.Close
}
