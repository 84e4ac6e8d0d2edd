package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// ANSI escapes for level coloring on interactive terminals.
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
)

// ConsoleHandler is a slog.Handler for operators watching a terminal. Each
// record renders as one line:
//
//	[LEVEL] [SYSTEM] [HH:MM:SS] message key=value key=value
//
// The system bracket comes from a "system" attribute, which is lifted out of
// the key=value section. Colors are applied only when the writer is a TTY.
type ConsoleHandler struct {
	w              io.Writer
	level          slog.Level
	mu             *sync.Mutex
	system         string
	showTimestamps bool
	useColors      bool
	groups         []string
	attrs          []slog.Attr
}

// NewConsoleHandler creates a console handler writing to w.
func NewConsoleHandler(w io.Writer, opts *slog.HandlerOptions) *ConsoleHandler {
	h := &ConsoleHandler{
		w:              w,
		level:          slog.LevelInfo,
		mu:             &sync.Mutex{},
		showTimestamps: true,
		useColors:      isTerminal(w),
	}

	if opts != nil && opts.Level != nil {
		h.level = opts.Level.Level()
	}

	return h
}

func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}

// Enabled reports whether the handler handles records at the given level.
func (h *ConsoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

// Handle renders one record. The line is assembled off-lock and written with
// a single Write so concurrent loggers cannot interleave output.
func (h *ConsoleHandler) Handle(_ context.Context, r slog.Record) error {
	var buf strings.Builder

	h.writeBracket(&buf, levelString(r.Level), h.levelColor(r.Level))

	if h.system != "" {
		buf.WriteString(" ")
		h.writeBracket(&buf, h.system, "")
	}

	if h.showTimestamps {
		buf.WriteString(" ")
		h.writeBracket(&buf, r.Time.Format("15:04:05"), colorGray)
	}

	buf.WriteString(" ")
	buf.WriteString(r.Message)

	for _, a := range h.attrs {
		h.appendAttr(&buf, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		h.appendAttr(&buf, a)
		return true
	})

	buf.WriteString("\n")

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write([]byte(buf.String()))
	return err
}

// writeBracket writes [text], colored when the writer is a terminal and a
// color was given.
func (h *ConsoleHandler) writeBracket(buf *strings.Builder, text, color string) {
	colored := h.useColors && color != ""
	if colored {
		buf.WriteString(color)
	}
	buf.WriteString("[")
	buf.WriteString(text)
	buf.WriteString("]")
	if colored {
		buf.WriteString(colorReset)
	}
}

// appendAttr writes one key=value pair. The system attribute is skipped; it
// already appears as a bracket prefix.
func (h *ConsoleHandler) appendAttr(buf *strings.Builder, a slog.Attr) {
	if a.Key == "system" {
		return
	}
	buf.WriteString(" ")
	buf.WriteString(a.Key)
	buf.WriteString("=")
	buf.WriteString(fmt.Sprint(a.Value.Any()))
}

// clone copies the handler so WithAttrs and WithGroup never mutate shared
// state. The mutex is shared on purpose: all clones write to the same writer.
func (h *ConsoleHandler) clone() *ConsoleHandler {
	return &ConsoleHandler{
		w:              h.w,
		level:          h.level,
		mu:             h.mu,
		system:         h.system,
		showTimestamps: h.showTimestamps,
		useColors:      h.useColors,
		groups:         h.groups,
		attrs:          h.attrs,
	}
}

// WithAttrs returns a handler carrying the additional attributes. A "system"
// attribute replaces the bracket prefix instead of joining the pairs.
func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := h.clone()

	c.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	c.attrs = append(c.attrs, h.attrs...)
	c.attrs = append(c.attrs, attrs...)

	for _, a := range attrs {
		if a.Key == "system" {
			c.system = a.Value.String()
		}
	}

	return c
}

// WithGroup records the group name. Groups are not rendered; the flat
// console format ignores nesting.
func (h *ConsoleHandler) WithGroup(name string) slog.Handler {
	c := h.clone()
	c.groups = append(append([]string(nil), h.groups...), name)
	return c
}

func (h *ConsoleHandler) levelColor(level slog.Level) string {
	switch level {
	case slog.LevelDebug:
		return colorGray
	case slog.LevelInfo:
		return colorCyan
	case slog.LevelWarn:
		return colorYellow
	case slog.LevelError:
		return colorRed
	default:
		return colorReset
	}
}

func levelString(level slog.Level) string {
	switch level {
	case slog.LevelDebug:
		return "DEBUG"
	case slog.LevelInfo:
		return "INFO"
	case slog.LevelWarn:
		return "WARN"
	case slog.LevelError:
		return "ERROR"
	default:
		return fmt.Sprintf("LEVEL(%d)", level)
	}
}
