// Package logger provides a lightweight, centralized logging facility
// with configurable verbosity levels.
//
// Design goals:
//   - Simple API (Errorf, Infof, Debugf, Tracef)
//   - Centralized verbosity control
//   - Zero formatting logic at call sites
//
// Verbosity levels (in increasing order):
//
//	Error < Info < Debug < Trace
//
// Output goes through zerolog. By default a console writer on stderr is
// used; Init can add a rotating log file.
//
// Example usage:
//
//	logger.SetVerbosity(2) // Debug
//	logger.Infof("starting selector")
//	logger.Debugf("spot=%f target=%f", spot, target)
package logger

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
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

// Options configures the log sinks.
type Options struct {
	Verbosity  int
	Console    io.Writer // defaults to os.Stderr; set to io.Discard to silence
	FilePath   string    // empty disables file output
	MaxSize    int       // megabytes
	MaxBackups int
	MaxAge     int // days
}

var (
	mu      sync.RWMutex
	current = Info
	base    = newConsole(os.Stderr)
	rotator *lumberjack.Logger
)

func newConsole(w io.Writer) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).
		Level(zerolog.TraceLevel).
		With().
		Timestamp().
		Logger()
}

// Init replaces the package logger according to opts.
// It is typically called once during application startup.
func Init(opts Options) error {
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	writers := []io.Writer{zerolog.ConsoleWriter{Out: console, TimeFormat: time.RFC3339}}

	var rot *lumberjack.Logger
	if opts.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(opts.FilePath), 0755); err != nil {
			return err
		}
		rot = &lumberjack.Logger{
			Filename:   opts.FilePath,
			MaxSize:    opts.MaxSize,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAge,
			Compress:   true,
		}
		writers = append(writers, rot)
	}

	l := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(zerolog.TraceLevel).
		With().
		Timestamp().
		Logger()

	mu.Lock()
	defer mu.Unlock()
	if rotator != nil {
		_ = rotator.Close()
	}
	base = l
	rotator = rot
	current = clamp(opts.Verbosity)
	return nil
}

// Close flushes and closes the log file, if any.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if rotator == nil {
		return nil
	}
	err := rotator.Close()
	rotator = nil
	return err
}

// SetVerbosity sets the global logging verbosity.
// Typically called once during application startup
// (e.g. after parsing CLI flags).
func SetVerbosity(v int) {
	mu.Lock()
	current = clamp(v)
	mu.Unlock()
}

// Verbosity returns the active verbosity level.
func Verbosity() Level {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

func clamp(v int) Level {
	switch {
	case v < int(Error):
		return Error
	case v > int(Trace):
		return Trace
	}
	return Level(v)
}

// logf checks verbosity and hands the message to zerolog.
func logf(l Level, format string, args ...any) {
	mu.RLock()
	enabled := current >= l
	lg := base
	mu.RUnlock()
	if !enabled {
		return
	}

	var ev *zerolog.Event
	switch l {
	case Error:
		ev = lg.Error()
	case Info:
		ev = lg.Info()
	case Debug:
		ev = lg.Debug()
	default:
		ev = lg.Trace()
	}
	ev.Msgf(format, args...)
}

// Errorf logs an error-level message.
// Use this for failures that require attention.
func Errorf(format string, args ...any) {
	logf(Error, format, args...)
}

// Infof logs an informational message.
// Use this for major lifecycle events.
func Infof(format string, args ...any) {
	logf(Info, format, args...)
}

// Debugf logs debugging information.
func Debugf(format string, args ...any) {
	logf(Debug, format, args...)
}

// Tracef logs very detailed execution traces.
// Use this sparingly due to high volume.
func Tracef(format string, args ...any) {
	logf(Trace, format, args...)
}
