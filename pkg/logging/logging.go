// Package logging provides the slog-based logger shared by the
// processing packages.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// Logger pairs an info and an error slog logger. Info messages carry the
// originating module as an attribute.
type Logger struct {
	InfoLog  *slog.Logger
	ErrorLog *slog.Logger
}

func (l Logger) Info(message string, module string) {
	if l.InfoLog != nil {
		l.InfoLog.Info(message, "module", module)
	}
}

func (l Logger) Error(message string) {
	if l.ErrorLog != nil {
		l.ErrorLog.Error(message)
	}
}

// NewLogger builds a logger writing human-readable info lines to out and
// JSON error records to errOut.
func NewLogger(out, errOut io.Writer, opts *slog.HandlerOptions) Logger {
	return Logger{
		InfoLog:  slog.New(NewHandler(out, opts)),
		ErrorLog: slog.New(slog.NewJSONHandler(errOut, opts)),
	}
}

// Default returns the stderr logger used when no logger is configured.
func Default() Logger {
	return NewLogger(os.Stderr, os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
}
