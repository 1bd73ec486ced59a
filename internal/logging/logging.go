// Package logging настраивает slog для сервиса.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config — параметры логирования.
type Config struct {
	Format string `yaml:"format" json:"format" envconfig:"FORMAT"` // "json" | "text"
	Level  string `yaml:"level" json:"level" envconfig:"LEVEL"`    // "debug" | "info" | "warn" | "error"
}

// New создаёт логгер, пишущий в w.
func New(cfg Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// Setup создаёт логгер в stdout и делает его глобальным.
func Setup(cfg Config) *slog.Logger {
	l := New(cfg, os.Stdout)
	slog.SetDefault(l)
	return l
}

// Discard — логгер для тестов.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Component возвращает логгер с именем компонента.
func Component(l *slog.Logger, name string) *slog.Logger {
	if l == nil {
		l = slog.Default()
	}
	return l.With("component", name)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
