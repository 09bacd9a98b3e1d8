// Package log provides the shared structured logger for the CLI and
// sidecar. The SDK core never logs: remote failures there are data,
// not log lines.
package log

import (
	"io"
	"log/slog"
	"os"
)

var logger *slog.Logger

// Options configures the logger.
type Options struct {
	// Verbose enables debug/info output; default is warn and above.
	Verbose bool
	// JSONFormat uses JSON output instead of text.
	JSONFormat bool
	// Stderr is the output writer (defaults to os.Stderr).
	Stderr io.Writer
}

// Init initializes the global logger with the given options.
func Init(opts Options) {
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if opts.JSONFormat {
		handler = slog.NewJSONHandler(stderr, handlerOpts)
	} else {
		handler = slog.NewTextHandler(stderr, handlerOpts)
	}
	logger = slog.New(handler)
	slog.SetDefault(logger)
}

// Debug logs a debug message.
func Debug(msg string, args ...any) {
	logger.Debug(msg, args...)
}

// Info logs an info message.
func Info(msg string, args ...any) {
	logger.Info(msg, args...)
}

// Warn logs a warning message.
func Warn(msg string, args ...any) {
	logger.Warn(msg, args...)
}

// Error logs an error message.
func Error(msg string, args ...any) {
	logger.Error(msg, args...)
}

// With returns a logger with additional context.
func With(args ...any) *slog.Logger {
	return logger.With(args...)
}

// SetOutput points the logger at w with all levels enabled (for testing).
func SetOutput(w io.Writer) {
	logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)
}

func init() {
	// Default logger until Init is called
	logger = slog.Default()
}
