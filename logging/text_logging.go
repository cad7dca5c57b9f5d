package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"
)

// TextHandler writes log lines optimized for local debugging where each log line
// has an instance ID to allow filtering by a specific logging concern.
type TextHandler struct {
	instanceID string
	mu         *sync.Mutex // Serialize writes to out
	out        io.Writer
	group      string
	attrs      []slog.Attr
}

func NewTextHandler() *TextHandler {
	return NewTextHandlerWriter(os.Stderr)
}

// NewTextHandlerWriter returns a TextHandler that writes to w.
func NewTextHandlerWriter(w io.Writer) *TextHandler {
	return &TextHandler{
		mu:         &sync.Mutex{},
		out:        w,
		instanceID: "root",
	}
}

func (h *TextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= globalLevel.Level()
}

func (h *TextHandler) Handle(ctx context.Context, r slog.Record) error {
	buf := make([]byte, 0, 1024)
	buf = fmt.Appendf(buf, "%s ", r.Time.Format("2006/01/02 15:04:05"))
	buf = fmt.Appendf(buf, "%s ", r.Level.String())
	buf = fmt.Appendf(buf, "[%s] ", h.instanceID)
	buf = fmt.Appendf(buf, "%s", r.Message)

	for _, a := range h.attrs {
		buf = appendAttr(buf, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		buf = appendAttr(buf, h.group, a)
		return true
	})
	buf = append(buf, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.out.Write(buf)
	return err
}

func (h *TextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	// Set the instance ID to a special logger member and remove it from the
	// attrs.
	nextHandler := h.clone()
	attrs = slices.Clone(attrs)
	for i, a := range attrs {
		if a.Key == "instanceID" {
			nextHandler.instanceID = a.Value.String()
			attrs = slices.Delete(attrs, i, i+1)
			break
		}
	}

	for _, a := range attrs {
		if h.group != "" {
			a.Key = h.group + "." + a.Key
		}
		nextHandler.attrs = append(nextHandler.attrs, a)
	}
	return nextHandler
}

// WithGroup qualifies the keys of later attributes with name.
func (h *TextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	nextHandler := h.clone()
	if nextHandler.group != "" {
		nextHandler.group += "." + name
	} else {
		nextHandler.group = name
	}
	return nextHandler
}

func (h *TextHandler) clone() *TextHandler {
	return &TextHandler{
		mu:         h.mu,
		out:        h.out,
		instanceID: h.instanceID,
		group:      h.group,
		attrs:      slices.Clip(h.attrs),
	}
}

func appendAttr(buf []byte, group string, a slog.Attr) []byte {
	key := a.Key
	if group != "" {
		key = group + "." + key
	}
	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			buf = appendAttr(buf, key, ga)
		}
		return buf
	}
	buf = fmt.Appendf(buf, " %s=", key)
	return appendValue(buf, a.Value)
}

// Append a value to the buffer wrapping in quotes if needed.
func appendValue(buf []byte, value slog.Value) []byte {
	var s string
	if value.Kind() == slog.KindTime {
		s = value.Time().Format(time.RFC3339)
	} else {
		s = value.Resolve().String()
	}
	if needsQuoting(s) {
		buf = fmt.Appendf(buf, "%q", s)
	} else {
		buf = fmt.Appendf(buf, "%s", s)
	}
	return buf
}

// Only spaces and `=` are a problem for the text logger, plus anything that
// isn't printable.
func needsQuoting(s string) bool {
	if len(s) == 0 {
		return true
	}
	for i := 0; i < len(s); {
		b := s[i]
		if b < utf8.RuneSelf {
			if b == ' ' || b == '=' || b == '"' || b < ' ' {
				return true
			}
			i++
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError || unicode.IsSpace(r) || !unicode.IsPrint(r) {
			return true
		}
		i += size
	}
	return false
}
