// Package logger provides subsystem-scoped slog loggers that travel in context.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Subsystem names a component that gets its own logger and level.
type Subsystem string

const (
	SubsystemApp    Subsystem = "APP"
	SubsystemBot    Subsystem = "BOT"
	SubsystemLedger Subsystem = "LEDGER"
	SubsystemHTTP   Subsystem = "HTTP"
)

type ctxKey struct{}

// Config holds the default level and per-subsystem overrides.
type Config struct {
	DefaultLevel    slog.Level
	SubsystemLevels map[Subsystem]slog.Level
	Output          io.Writer
}

// NewConfig reads LOG_LEVEL and LOG_LEVEL_<SUBSYSTEM> from the environment.
func NewConfig() Config {
	cfg := Config{
		DefaultLevel:    parseLevel(os.Getenv("LOG_LEVEL"), slog.LevelInfo),
		SubsystemLevels: make(map[Subsystem]slog.Level),
		Output:          os.Stdout,
	}
	for _, s := range []Subsystem{SubsystemApp, SubsystemBot, SubsystemLedger, SubsystemHTTP} {
		if v := os.Getenv("LOG_LEVEL_" + string(s)); v != "" {
			cfg.SubsystemLevels[s] = parseLevel(v, cfg.DefaultLevel)
		}
	}
	return cfg
}

// LevelFor returns the effective level for a subsystem.
func (c Config) LevelFor(s Subsystem) slog.Level {
	if lvl, ok := c.SubsystemLevels[s]; ok {
		return lvl
	}
	return c.DefaultLevel
}

// NewSubsystemLogger creates a JSON logger tagged with the subsystem name.
// When otelHandler is non-nil, records are also sent to it.
func NewSubsystemLogger(subsystem Subsystem, cfg Config, otelHandler slog.Handler) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	level := cfg.LevelFor(subsystem)

	var handler slog.Handler = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})
	if otelHandler != nil {
		handler = &fanoutHandler{
			level:    level,
			handlers: []slog.Handler{handler, otelHandler},
		}
	}
	return slog.New(handler).With("subsystem", string(subsystem))
}

// AddToContext returns a copy of ctx carrying log.
func AddToContext(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

// FromContext returns the logger stored in ctx, or slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if log, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && log != nil {
			return log
		}
	}
	return slog.Default()
}

func parseLevel(s string, fallback slog.Level) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return fallback
	}
}

// fanoutHandler duplicates records to several handlers.
type fanoutHandler struct {
	level    slog.Level
	handlers []slog.Handler
}

func (h *fanoutHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *fanoutHandler) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, child := range h.handlers {
		if !child.Enabled(ctx, r.Level) {
			continue
		}
		if err := child.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (h *fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, child := range h.handlers {
		next[i] = child.WithAttrs(attrs)
	}
	return &fanoutHandler{level: h.level, handlers: next}
}

func (h *fanoutHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, child := range h.handlers {
		next[i] = child.WithGroup(name)
	}
	return &fanoutHandler{level: h.level, handlers: next}
}
