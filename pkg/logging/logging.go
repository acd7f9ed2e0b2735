// Package logging provides the leveled logger sgidisk's library and
// CLI share for diagnostics: a thin wrapper over logr.Logger, with a
// colored SimpleLogSink (see simple.go) for when --verbose is set.
package logging

import (
	"os"

	"github.com/go-logr/logr"
)

const (
	LevelInfo  = 0
	LevelDebug = 1
)

// NewLogger wraps an existing logr.Logger.
func NewLogger(log logr.Logger) *Logger {
	if log.GetSink() == nil {
		log = logr.Discard()
	}
	return &Logger{log: log}
}

// DefaultLogger discards everything; it's what every Open call uses
// unless a caller attaches one via WithLogger.
func DefaultLogger() *Logger {
	return &Logger{log: logr.Discard()}
}

// VerboseLogger returns a colored Logger writing to stdout when
// verbose is true, or DefaultLogger otherwise. It's how the CLI turns
// --verbose into actual Debug output from the library.
func VerboseLogger(verbose bool) *Logger {
	if !verbose {
		return DefaultLogger()
	}
	return NewLogger(NewSimpleLogger(os.Stdout, LevelDebug, true))
}

// Logger wraps a logr.Logger with three levels: Debug, which sgidisk's
// library code calls for the open/derive-geometry trail, plus Info and
// Error for callers.
type Logger struct {
	log logr.Logger
}

func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.log.V(LevelDebug).Info(msg, keysAndValues...)
}

func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Info(msg, keysAndValues...)
}

func (l *Logger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(err, msg, keysAndValues...)
}
