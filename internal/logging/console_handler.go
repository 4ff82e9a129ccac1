package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

const consoleTimeLayout = "2006-01-02 15:04:05"

// consoleHandler writes a header line per record and one indented line per
// remaining field:
//
//	2026-01-02 15:04:05 INFO [duration] Growl (Mega Drive) – candidate accepted
//	    - similarity: 1
//
// The component, game and platform fields are lifted into the header.
type consoleHandler struct {
	out        *lockedWriter
	level      slog.Leveler
	withSource bool
	preset     []slog.Attr
	groups     []string
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (lw *lockedWriter) write(p []byte) error {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	_, err := lw.w.Write(p)
	return err
}

func newPrettyHandler(w io.Writer, level slog.Leveler, withSource bool) slog.Handler {
	return &consoleHandler{out: &lockedWriter{w: w}, level: level, withSource: withSource}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.preset = append(slices.Clip(h.preset), h.prefixed(attrs)...)
	return &next
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.groups = append(append([]string(nil), h.groups...), name)
	return &next
}

// prefixed qualifies attrs with the current group path by wrapping them.
func (h *consoleHandler) prefixed(attrs []slog.Attr) []slog.Attr {
	if len(h.groups) == 0 {
		return attrs
	}
	args := make([]any, len(attrs))
	for i, a := range attrs {
		args[i] = a
	}
	wrapped := slog.Group(h.groups[len(h.groups)-1], args...)
	for i := len(h.groups) - 2; i >= 0; i-- {
		wrapped = slog.Group(h.groups[i], wrapped)
	}
	return []slog.Attr{wrapped}
}

func (h *consoleHandler) Handle(_ context.Context, r slog.Record) error {
	if !h.Enabled(context.Background(), r.Level) {
		return nil
	}

	var fields fieldList
	for _, a := range h.preset {
		fields.add("", a)
	}
	recordAttrs := make([]slog.Attr, 0, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		recordAttrs = append(recordAttrs, a)
		return true
	})
	for _, a := range h.prefixed(recordAttrs) {
		fields.add("", a)
	}

	component := fields.take(FieldComponent)
	game := fields.take(FieldGame)
	platform := fields.take(FieldPlatform)

	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	var b strings.Builder
	b.WriteString(ts.Local().Format(consoleTimeLayout))
	b.WriteString(" " + levelName(r.Level))
	if component != "" {
		fmt.Fprintf(&b, " [%s]", component)
	}
	if game != "" {
		b.WriteString(" " + game)
		if platform != "" {
			fmt.Fprintf(&b, " (%s)", platform)
		}
	}
	msg := strings.TrimSpace(r.Message)
	if msg == "" {
		msg = "(no message)"
	}
	b.WriteString(" – " + msg)
	if h.withSource {
		if src := r.Source(); src != nil && src.File != "" {
			fmt.Fprintf(&b, " [%s:%d]", filepath.Base(src.File), src.Line)
		}
	}
	b.WriteByte('\n')
	for _, f := range fields {
		fmt.Fprintf(&b, "    - %s: %s\n", f.key, quoteIfNeeded(render(f.value)))
	}
	return h.out.write([]byte(b.String()))
}

type field struct {
	key   string
	value slog.Value
}

// fieldList keeps first-seen key order; a repeated key overwrites the value.
type fieldList []field

func (l *fieldList) add(prefix string, a slog.Attr) {
	if a.Equal(slog.Attr{}) {
		return
	}
	v := a.Value.Resolve()
	key := a.Key
	if prefix != "" && key != "" {
		key = prefix + "." + key
	} else if prefix != "" {
		key = prefix
	}
	if v.Kind() == slog.KindGroup {
		for _, child := range v.Group() {
			l.add(key, child)
		}
		return
	}
	if key == "" {
		return
	}
	for i := range *l {
		if (*l)[i].key == key {
			(*l)[i].value = v
			return
		}
	}
	*l = append(*l, field{key: key, value: v})
}

// take removes key and returns its rendered value.
func (l *fieldList) take(key string) string {
	for i, f := range *l {
		if f.key == key {
			*l = append((*l)[:i], (*l)[i+1:]...)
			return strings.TrimSpace(render(f.value))
		}
	}
	return ""
}

func levelName(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	}
	return "DEBUG"
}

func render(v slog.Value) string {
	switch v.Kind() {
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindTime:
		return v.Time().Local().Format(consoleTimeLayout)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return fmt.Sprint(v.Any())
	}
	return v.String()
}

func quoteIfNeeded(s string) string {
	if s == "" || strings.ContainsFunc(s, func(r rune) bool { return r < ' ' || r == '"' }) {
		return strconv.Quote(s)
	}
	return s
}
