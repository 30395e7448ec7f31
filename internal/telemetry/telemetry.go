// Package telemetry is the crawl's only window into the outside world
// besides the journal: structured logs for humans and optional Prometheus
// counters for scraping. Nothing in the crawl pipeline decides what to do
// next based on what telemetry records — it is observed, not consulted.
package telemetry

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Logger wraps a logrus.Logger so every call site logs with the same
// field vocabulary (url, host, depth, stage, err) instead of ad-hoc
// fmt.Printf lines scattered across packages.
type Logger struct {
	*logrus.Logger
}

// New builds a Logger writing structured (JSON in non-TTY, text in TTY)
// output to stderr at the given level name ("debug", "info", "warn",
// "error"; unrecognized names fall back to "info").
func New(level string) *Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)

	if isTerminal(os.Stderr) {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		l.SetFormatter(&logrus.JSONFormatter{})
	}

	return &Logger{Logger: l}
}

// WithURL is the field set nearly every pipeline log line carries.
func (lg *Logger) WithURL(url string) *logrus.Entry {
	return lg.WithField("url", url)
}

// WithStage tags a log line with the pipeline stage it came from
// ("fetch", "classify", "download", "journal", "pool").
func (lg *Logger) WithStage(stage string) *logrus.Entry {
	return lg.WithField("stage", stage)
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
