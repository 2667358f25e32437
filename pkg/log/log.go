// Package log configures the process wide default slog handler chain.
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dotse/slug"
	sentryslog "github.com/getsentry/sentry-go/slog"
	slogmulti "github.com/samber/slog-multi"
)

type Level string

const (
	Debug Level = "debug"
	Info  Level = "info"
	Warn  Level = "warn"
	Error Level = "error"
)

// ToSlogLevel maps our levels to the equivalent slog level.
func ToSlogLevel(level Level) slog.Level {
	switch level {
	case Debug:
		return slog.LevelDebug
	case Info:
		return slog.LevelInfo
	case Warn:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// MustCreateLogger creates and installs the default global log handler. Depending on
// configuration a local log file and an external sentry handler may also be attached.
//
// Returns a cleanup function which should be called on program shutdown.
//
// Panics on failure to open the log file for writing.
func MustCreateLogger(ctx context.Context, logFilePath string, level Level, useSentry bool, version string) func() {
	var (
		closer = func() {}
		opts   = slug.HandlerOptions{
			HandlerOptions: slog.HandlerOptions{
				Level: ToSlogLevel(level),
			},
		}
		handlers []slog.Handler
	)

	if useSentry {
		handlers = append(handlers, sentryslog.Option{
			AddSource: true,
		}.NewSentryHandler(ctx))
	}

	if logFilePath != "" {
		logFile, errLogFile := os.Create(logFilePath)
		if errLogFile != nil {
			panic(fmt.Sprintf("Failed to open logfile: %v", errLogFile))
		}

		closer = func() {
			if errClose := logFile.Close(); errClose != nil {
				panic(fmt.Sprintf("Failed to close log file: %v", errClose))
			}
		}

		handlers = append(handlers, slug.NewHandler(opts, logFile))
	} else {
		handlers = append(handlers, slug.NewHandler(opts, os.Stdout))
	}

	defaultLogger := slog.New(slogmulti.Fanout(handlers...))

	if version != "" {
		defaultLogger = defaultLogger.With("release", version)
	}

	slog.SetDefault(defaultLogger)

	return closer
}

func ErrAttr(err error) slog.Attr {
	return slog.Any("reason", err)
}

// Closer closes an io.Closer, logging instead of returning any close error. Mostly
// useful inside defer statements.
func Closer(closer io.Closer) {
	if errClose := closer.Close(); errClose != nil {
		slog.Error("Failed to close", ErrAttr(errClose))
	}
}
