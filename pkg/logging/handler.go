package logging

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"io"
)

// Handler renders records as plain lines: a bracketed timestamp, the
// record attributes in brackets, then the message. Level filtering is
// delegated to an inner text handler.
type Handler struct {
	inner slog.Handler
	mu    *sync.Mutex
	out   io.Writer
	attrs []slog.Attr
}

func NewHandler(out io.Writer, opts *slog.HandlerOptions) *Handler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	return &Handler{
		out:   out,
		inner: slog.NewTextHandler(out, &slog.HandlerOptions{Level: opts.Level}),
		mu:    &sync.Mutex{},
	}
}

func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	combined := append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &Handler{inner: h.inner, out: h.out, mu: h.mu, attrs: combined}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{inner: h.inner.WithGroup(name), out: h.out, mu: h.mu, attrs: h.attrs}
}

func (h *Handler) Handle(ctx context.Context, record slog.Record) error {
	var line strings.Builder
	line.WriteString(record.Time.Format("[2006/01/02 15:04:05]"))
	for _, attr := range h.attrs {
		line.WriteString(" [" + attr.Value.String() + "]")
	}
	record.Attrs(func(attr slog.Attr) bool {
		line.WriteString(" [" + attr.Value.String() + "]")
		return true
	})
	line.WriteString(" " + record.Message + " \n")

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.out.Write([]byte(line.String()))
	return err
}
