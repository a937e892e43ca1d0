package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger returns a leveled logger with millisecond timestamps.
// Commands reach it through log.FromContext.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.000",
	})
}

// stopwatch logs completed steps with the time since it was started.
type stopwatch struct {
	logger *log.Logger
	start  time.Time
}

func startStopwatch(l *log.Logger) stopwatch {
	return stopwatch{logger: l, start: time.Now()}
}

// lap logs msg at info level with a "took" field.
func (s stopwatch) lap(msg string, keyvals ...any) {
	took := time.Since(s.start).Round(time.Millisecond)
	s.logger.Info(msg, append(keyvals, "took", took)...)
}
