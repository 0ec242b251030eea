package config

import (
	"io"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
)

// fanoutLogger builds a logger that writes human-readable text to stderr and,
// when a file writer is present, structured JSON to it as well.
func fanoutLogger(stderr, file io.Writer, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	text := slog.NewTextHandler(stderr, opts)
	if file == nil {
		return slog.New(text)
	}
	return slog.New(slogmulti.Fanout(text, slog.NewJSONHandler(file, opts)))
}

// SetupLogger creates the process logger. An empty logFile means stderr only.
// The returned cleanup closes the log file and must be called on shutdown.
func SetupLogger(logFile string, level slog.Level) (*slog.Logger, func() error) {
	noop := func() error { return nil }

	if logFile == "" {
		return fanoutLogger(os.Stderr, nil, level), noop
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		slog.Error("failed to open log file, using stderr only", "error", err, "file", logFile)
		return fanoutLogger(os.Stderr, nil, level), noop
	}

	return fanoutLogger(os.Stderr, file, level), file.Close
}

// SetupLoggerWithWriters builds the same fanout over caller-supplied writers.
func SetupLoggerWithWriters(stderr, file io.Writer, level slog.Level) *slog.Logger {
	return fanoutLogger(stderr, file, level)
}
