package observability

import (
	"io"
	"os"
	"path/filepath"

	"golang.org/x/exp/slog"
)

func setupLogger(opts *slog.HandlerOptions, writers ...io.Writer) *slog.Logger {
	writer := io.MultiWriter(writers...)
	if opts == nil {
		opts = &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}
	}
	return slog.New(slog.NewTextHandler(writer, opts))
}

// SetupLogger builds the process logger. Output goes to stderr and, when
// logFile is not empty, is appended to that file too. The returned closer
// releases the file and is never nil.
func SetupLogger(logFile string, debug bool, tags Tags) (*HammerLogger, io.Closer) {
	writers := []io.Writer{os.Stderr}
	var closer io.Closer = nopCloser{}

	if logFile != "" {
		if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err == nil {
			file, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
			if err == nil {
				writers = append(writers, file)
				closer = file
			}
		}
	}

	level := slog.LevelInfo
	if debug || os.Getenv("JSONHAMMER_DEBUG") != "" {
		level = slog.LevelDebug
	}

	logger := setupLogger(&slog.HandlerOptions{Level: level}, writers...)
	slog.SetDefault(logger)
	return NewHammerLogger(logger, tags), closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
