package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/log"
)

// newLogger builds the process logger. Text output goes through
// charmbracelet/log; json uses the slog JSON handler.
func newLogger(format string, verbose bool, writer io.Writer) (*slog.Logger, error) {
	if writer == nil {
		writer = os.Stderr
	}

	switch format {
	case "", "text":
		lvl := log.InfoLevel
		if verbose {
			lvl = log.DebugLevel
		}
		return slog.New(log.NewWithOptions(writer, log.Options{
			ReportTimestamp: verbose,
			Level:           lvl,
		})), nil
	case "json":
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		return slog.New(slog.NewJSONHandler(writer, &slog.HandlerOptions{Level: level})), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}
