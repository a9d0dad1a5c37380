// Package logger provides a centralized logging facility with configurable
// verbosity levels, backed by logrus.
//
// Verbosity levels (in increasing order):
//
//	Error < Info < Debug < Trace
//
// Example usage:
//
//	logger.SetVerbosity(2) // Debug
//	logger.Infof("pricing %s", kind)
//	logger.WithFields(logrus.Fields{"spot": spot}).Debug("market snapshot loaded")
package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Level represents a logging verbosity level.
// Higher values mean more verbose logging.
type Level int

const (
	Error Level = iota // Error logs only critical failures.
	Info               // Info logs high-level application progress.
	Debug              // Debug logs detailed diagnostic information.
	Trace              // Trace logs very fine-grained execution details.
)

var std = newStd()

func newStd() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// SetVerbosity sets the global logging verbosity.
// Values outside 0..3 are clamped.
func SetVerbosity(v int) {
	std.SetLevel(toLogrus(Level(v)))
}

// SetJSON switches between the JSON formatter and the default text formatter.
func SetJSON(enabled bool) {
	if enabled {
		std.SetFormatter(&logrus.JSONFormatter{})
		return
	}
	std.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

// SetOutput redirects log output, mainly for tests.
func SetOutput(w io.Writer) {
	std.SetOutput(w)
}

func toLogrus(l Level) logrus.Level {
	switch {
	case l <= Error:
		return logrus.ErrorLevel
	case l == Info:
		return logrus.InfoLevel
	case l == Debug:
		return logrus.DebugLevel
	}
	return logrus.TraceLevel
}

// WithFields returns an entry carrying structured fields.
func WithFields(fields logrus.Fields) *logrus.Entry {
	return std.WithFields(fields)
}

// Errorf logs an error-level message.
// Use this for failures that require attention.
func Errorf(format string, args ...any) {
	std.Errorf(format, args...)
}

// Warnf logs a recoverable problem, such as a provider falling back to its secondary.
func Warnf(format string, args ...any) {
	std.Warnf(format, args...)
}

// Infof logs an informational message.
// Use this for major lifecycle events.
func Infof(format string, args ...any) {
	std.Infof(format, args...)
}

// Debugf logs debugging information.
func Debugf(format string, args ...any) {
	std.Debugf(format, args...)
}

// Tracef logs very detailed execution traces.
// Use this sparingly due to high volume.
func Tracef(format string, args ...any) {
	std.Tracef(format, args...)
}
