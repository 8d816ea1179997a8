package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"teamform-scraper/config"
)

// InitializeDefaultLogger sets the process-wide slog logger. If logFile is
// non-empty the log stream is duplicated into that file, which is truncated
// at startup so every run starts with a fresh log.
func InitializeDefaultLogger(logFile string) error {
	var w io.Writer = os.Stdout
	if logFile != "" {
		if err := os.MkdirAll(filepath.Dir(logFile), 0755); err != nil {
			return err
		}
		f, err := os.Create(logFile)
		if err != nil {
			return err
		}
		w = io.MultiWriter(os.Stdout, f)
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: config.GetLogLevel()}))
	slog.SetDefault(logger)
	return nil
}

func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, config.LoggerCtxKey, logger)
}

func LoggerFromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(config.LoggerCtxKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}
