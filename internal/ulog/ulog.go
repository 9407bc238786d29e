// Package ulog provides the toolchain's ambient logging: a single-line,
// leveled slog.Handler used by every CLI for the `-d`/`--debug` phase
// tracing. It never carries user-facing diagnostics — those live in
// [github.com/keurnel/uni/internal/diag], which is data, not logs.
package ulog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

// Level is re-exported so callers don't need to import log/slog directly.
type Level = slog.Level

// LogLevel is the process-wide level variable. CLIs flip it to LevelDebug
// when `-d`/`--debug` is passed.
var LogLevel = &slog.LevelVar{}

// DefaultLogger returns the process-wide logger, writing to stderr.
func DefaultLogger() *slog.Logger {
	return slog.New(NewHandler(os.Stderr))
}

// Handler is a compact single-line slog.Handler: "LEVEL message key=val ...".
type Handler struct {
	mut   *sync.Mutex
	out   io.Writer
	group string
	attrs []slog.Attr
}

// NewHandler builds a Handler writing to out, gated by LogLevel.
func NewHandler(out io.Writer) *Handler {
	return &Handler{out: out, mut: &sync.Mutex{}}
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= LogLevel.Level()
}

func (h *Handler) Handle(_ context.Context, rec slog.Record) error {
	h.mut.Lock()
	defer h.mut.Unlock()

	fmt.Fprintf(h.out, "%-5s %s", rec.Level.String(), rec.Message)
	for _, a := range h.attrs {
		fmt.Fprintf(h.out, " %s=%v", a.Key, a.Value)
	}
	rec.Attrs(func(a slog.Attr) bool {
		fmt.Fprintf(h.out, " %s=%v", a.Key, a.Value)
		return true
	})
	fmt.Fprintln(h.out)
	return nil
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &Handler{mut: h.mut, out: h.out, attrs: h.attrs, group: name}
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &Handler{mut: h.mut, out: h.out, attrs: merged, group: h.group}
}
