package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

type Config struct {
	Level     slog.Level `toml:"level"`
	Format    string     `toml:"format"`
	AddSource bool       `toml:"add_source"`
	File      string     `toml:"file"`
	MaxSizeMB int        `toml:"max_size_mb"`
	MaxAgeDay int        `toml:"max_age_days"`
}

// Setup builds the process logger. Format is "color" (default), "text" or "json". When File is
// set, output is also written to a size-rotated file. The returned closer flushes that file.
func Setup(cfg Config) (*slog.Logger, io.Closer) {
	var (
		w      io.Writer = os.Stdout
		closer io.Closer = nopCloser{}
	)
	if cfg.File != "" {
		rotator := &lumberjack.Logger{
			Filename: cfg.File,
			MaxSize:  cfg.MaxSizeMB,
			MaxAge:   cfg.MaxAgeDay,
			Compress: true,
		}
		w = io.MultiWriter(os.Stdout, rotator)
		closer = rotator
	}

	opts := &slog.HandlerOptions{
		Level:     cfg.Level,
		AddSource: cfg.AddSource,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if level, ok := a.Value.Any().(slog.Level); ok {
					a.Value = slog.StringValue(LevelName(level))
				}
			}
			return a
		},
	}

	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	case "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		handler = NewHandler(w, "disunit", cfg.Level, cfg.File == "")
	}
	return slog.New(handler), closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func Success(msg string, attrs ...any) {
	slog.Log(context.Background(), LevelSuccess, msg, attrs...)
}

func Fail(msg string, attrs ...any) {
	slog.Log(context.Background(), LevelFail, msg, attrs...)
}

// LogCommand logs the outcome of a command handler.
func LogCommand(name string, duration time.Duration, err error) {
	attrs := []any{
		slog.String("type", "cmd"),
		slog.String("name", name),
		slog.Duration("took", duration),
	}

	if err != nil {
		slog.Error("Command failed", append(attrs, slog.Any("error", err))...)
	} else {
		slog.Info("Command executed", attrs...)
	}
}

// LogUnit logs a lifecycle transition of a unit.
func LogUnit(op string, kind string, name string, err error) {
	attrs := []any{
		slog.String("type", "unit"),
		slog.String("kind", kind),
		slog.String("name", name),
		slog.String("op", op),
	}
	if err != nil {
		Fail("Unit "+op+" failed", append(attrs, slog.Any("error", err))...)
		return
	}
	Success("Unit "+op+" succeeded", attrs...)
}

func LogDeploy(scope string, created, updated, removed int, took time.Duration) {
	Success("Commands deployed",
		slog.String("type", "deploy"),
		slog.String("scope", scope),
		slog.Int("created", created),
		slog.Int("updated", updated),
		slog.Int("removed", removed),
		slog.Duration("took", took),
	)
}

func LogSystem(msg string, attrs ...any) {
	baseAttrs := []any{slog.String("type", "sys")}
	slog.Info(msg, append(baseAttrs, attrs...)...)
}

func LogError(msg string, err error, attrs ...any) {
	baseAttrs := []any{
		slog.String("type", "error"),
		slog.Any("error", err),
	}
	slog.Error(msg, append(baseAttrs, attrs...)...)
}
