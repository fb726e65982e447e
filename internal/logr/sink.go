package logr

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/go-logr/logr"
)

var _ logr.LogSink = (*slogSink)(nil)

// slogSink is a logr sink that writes to a slog handler. V-levels are mapped
// onto slog levels below info: V(1) is debug, V(2) is one below debug, and so
// on.
type slogSink struct {
	handler slog.Handler
	name    string
}

func newLogSink(h slog.Handler) *slogSink {
	return &slogSink{handler: h}
}

func (s *slogSink) Init(logr.RuntimeInfo) {}

func (s *slogSink) Enabled(level int) bool {
	return s.handler.Enabled(context.Background(), levelFromV(level))
}

func (s *slogSink) Info(level int, msg string, keysAndValues ...any) {
	s.log(levelFromV(level), msg, keysAndValues...)
}

func (s *slogSink) Error(err error, msg string, keysAndValues ...any) {
	if err != nil {
		keysAndValues = append([]any{"error", err}, keysAndValues...)
	}
	s.log(slog.LevelError, msg, keysAndValues...)
}

func (s *slogSink) WithValues(keysAndValues ...any) logr.LogSink {
	return &slogSink{
		handler: s.handler.WithAttrs(attrs(keysAndValues)),
		name:    s.name,
	}
}

func (s *slogSink) WithName(name string) logr.LogSink {
	if s.name != "" {
		name = s.name + "/" + name
	}
	return &slogSink{
		handler: s.handler.WithAttrs([]slog.Attr{slog.String("logger", name)}),
		name:    name,
	}
}

func (s *slogSink) log(level slog.Level, msg string, keysAndValues ...any) {
	ctx := context.Background()
	if !s.handler.Enabled(ctx, level) {
		return
	}
	var pcs [1]uintptr
	// skip [Callers, log, Info|Error, logr.Logger.Info|Error, Logger.Info|Error]
	runtime.Callers(5, pcs[:])
	r := slog.NewRecord(time.Now(), level, msg, pcs[0])
	r.Add(keysAndValues...)
	_ = s.handler.Handle(ctx, r)
}

// levelFromV is the inverse of toSlogLevel, so that running with -v N enables
// V(N) and below.
func levelFromV(v int) slog.Level {
	return toSlogLevel(v)
}

func attrs(keysAndValues []any) []slog.Attr {
	var r slog.Record
	r.Add(keysAndValues...)
	attrs := make([]slog.Attr, 0, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, a)
		return true
	})
	return attrs
}

// LevelHandler wraps a Handler with an Enabled method that returns false for
// levels below a minimum.
type LevelHandler struct {
	level   slog.Leveler
	handler slog.Handler
}

// NewLevelHandler returns a LevelHandler with the given level. All methods
// except Enabled delegate to h.
func NewLevelHandler(level slog.Leveler, h slog.Handler) *LevelHandler {
	// Optimization: avoid chains of LevelHandlers.
	if lh, ok := h.(*LevelHandler); ok {
		h = lh.Handler()
	}
	return &LevelHandler{level, h}
}

// Enabled implements Handler.Enabled by reporting whether level is at least
// as large as h's level.
func (h *LevelHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle implements Handler.Handle.
func (h *LevelHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.handler.Handle(ctx, r)
}

// WithAttrs implements Handler.WithAttrs.
func (h *LevelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return NewLevelHandler(h.level, h.handler.WithAttrs(attrs))
}

// WithGroup implements Handler.WithGroup.
func (h *LevelHandler) WithGroup(name string) slog.Handler {
	return NewLevelHandler(h.level, h.handler.WithGroup(name))
}

// Handler returns the Handler wrapped by h.
func (h *LevelHandler) Handler() slog.Handler {
	return h.handler
}
