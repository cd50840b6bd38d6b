// Package logging builds the process logger from configuration.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options selects level, format and destination.
type Options struct {
	Level  string // debug, info, warn or error; empty means info
	Format string // text or json
	File   string // append to this file; empty or "-" writes to the fallback writer
}

func level(option string) (slog.Leveler, bool) {
	switch strings.ToLower(option) {
	case "":
		return nil, true
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return nil, false
	}
}

// New returns a logger for opts writing to w unless opts.File names a file.
// Unusable options fall back to defaults and the fallback is logged as a
// warning. The returned close function releases an opened log file.
func New(opts Options, w io.Writer) (*slog.Logger, func() error) {
	noop := func() error { return nil }

	lvl, ok := level(opts.Level)
	if !ok {
		bad := opts.Level
		opts.Level = ""
		logger, closeFn := New(opts, w)
		logger.Warn("could not parse logger level", "level", bad)
		return logger, closeFn
	}
	handlerOpts := slog.HandlerOptions{Level: lvl}

	output := w
	closeFn := noop
	switch opts.File {
	case "", "-":
	case os.DevNull:
		return slog.New(slog.DiscardHandler), noop
	default:
		f, err := os.OpenFile(opts.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if err != nil {
			opts.File = ""
			logger, closeFn := New(opts, w)
			logger.Warn("could not open logger file", "err", err)
			return logger, closeFn
		}
		output = f
		closeFn = f.Close
	}

	switch strings.ToLower(opts.Format) {
	case "json":
		return slog.New(slog.NewJSONHandler(output, &handlerOpts)), closeFn
	case "", "text":
		return slog.New(slog.NewTextHandler(output, &handlerOpts)), closeFn
	default:
		_ = closeFn()
		opts.Format = "text"
		logger, closeFn := New(opts, w)
		logger.Warn("could not parse logger format")
		return logger, closeFn
	}
}
