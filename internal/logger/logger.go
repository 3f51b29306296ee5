// Package logger is the process-wide slog logger used by every package, plus
// component-tagged loggers and an optional raw HTTP wire dump (wire.go).
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var levels = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// sink holds the active writer and handler format; the slog.Logger is
// rebuilt whenever either changes.
type sink struct {
	mu     sync.RWMutex
	w      io.Writer
	json   bool
	level  slog.LevelVar
	logger *slog.Logger
}

var std = newSink(os.Stdout)

func newSink(w io.Writer) *sink {
	s := &sink{w: w}
	s.level.Set(slog.LevelInfo)
	s.rebuild()
	return s
}

// rebuild must be called with mu held (or before s is shared).
func (s *sink) rebuild() {
	if s.w == nil {
		s.w = os.Stdout
	}
	opts := &slog.HandlerOptions{Level: &s.level}
	if s.json {
		s.logger = slog.New(slog.NewJSONHandler(s.w, opts))
		return
	}
	s.logger = slog.New(slog.NewTextHandler(s.w, opts))
}

func (s *sink) current() *slog.Logger {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.logger
}

func SetOutput(w io.Writer) {
	std.mu.Lock()
	std.w = w
	std.rebuild()
	std.mu.Unlock()
}

// SetFormat selects the "json" or "text" (default) handler.
func SetFormat(f string) {
	std.mu.Lock()
	std.json = strings.EqualFold(strings.TrimSpace(f), "json")
	std.rebuild()
	std.mu.Unlock()
}

// SetLevel accepts debug, info, warn(ing) and error; anything else means info.
func SetLevel(level string) {
	lv, ok := levels[strings.ToLower(strings.TrimSpace(level))]
	if !ok {
		lv = slog.LevelInfo
	}
	std.level.Set(lv)
}

func Level() slog.Level {
	return std.level.Level()
}

func logf(l *slog.Logger, lv slog.Level, format string, v []any) {
	if !l.Enabled(context.Background(), lv) {
		return
	}
	l.Log(context.Background(), lv, fmt.Sprintf(format, v...))
}

func Debugf(format string, v ...any) { logf(std.current(), slog.LevelDebug, format, v) }
func Infof(format string, v ...any)  { logf(std.current(), slog.LevelInfo, format, v) }
func Warnf(format string, v ...any)  { logf(std.current(), slog.LevelWarn, format, v) }
func Errorf(format string, v ...any) { logf(std.current(), slog.LevelError, format, v) }

// InfoBlock logs a multi-line block one line per record.
func InfoBlock(block string) {
	block = strings.TrimSpace(block)
	if block == "" {
		return
	}
	for _, line := range strings.Split(block, "\n") {
		Infof("%s", line)
	}
}

// Component is a logger tagged with a component attribute. It resolves the
// base logger on every call so SetOutput/SetLevel apply to it too.
type Component struct {
	name  string
	attrs []any
}

func With(component string, attrs ...any) *Component {
	return &Component{name: component, attrs: attrs}
}

func (c *Component) log() *slog.Logger {
	l := std.current()
	if c == nil {
		return l
	}
	l = l.With("component", c.name)
	if len(c.attrs) > 0 {
		l = l.With(c.attrs...)
	}
	return l
}

func (c *Component) Debugf(format string, v ...any) { logf(c.log(), slog.LevelDebug, format, v) }
func (c *Component) Infof(format string, v ...any)  { logf(c.log(), slog.LevelInfo, format, v) }
func (c *Component) Warnf(format string, v ...any)  { logf(c.log(), slog.LevelWarn, format, v) }
func (c *Component) Errorf(format string, v ...any) { logf(c.log(), slog.LevelError, format, v) }
