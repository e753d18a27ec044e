package logging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// EventHandlerOptions configures an EventHandler.
type EventHandlerOptions struct {
	// Level is the minimum record level that is written.
	Level slog.Leveler

	// NoColor disables colored event tags. When false, color output
	// follows the terminal detection of fatih/color.
	NoColor bool
}

// EventHandler is a slog.Handler that writes one line per record in the
// form "[<unix-seconds>][<message>]: <payload>".
//
// The payload is the value of the PayloadKey attribute. Any other attributes
// are appended as key=value pairs.
type EventHandler struct {
	w     io.Writer
	mu    *sync.Mutex
	level slog.Leveler
	attrs []slog.Attr

	fatal  *color.Color
	run    *color.Color
	ignore *color.Color
	change *color.Color
}

// NewEventHandler creates an EventHandler writing to w.
func NewEventHandler(w io.Writer, opts *EventHandlerOptions) *EventHandler {
	if opts == nil {
		opts = &EventHandlerOptions{}
	}

	level := opts.Level
	if level == nil {
		level = slog.LevelInfo
	}

	h := &EventHandler{
		w:      w,
		mu:     &sync.Mutex{},
		level:  level,
		fatal:  color.New(color.FgRed, color.Bold),
		run:    color.New(color.FgCyan),
		ignore: color.New(color.FgGreen),
		change: color.New(color.FgYellow),
	}

	if opts.NoColor {
		for _, c := range []*color.Color{h.fatal, h.run, h.ignore, h.change} {
			c.DisableColor()
		}
	}

	return h
}

// Enabled reports whether records at level are written.
func (h *EventHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle writes a single event line.
func (h *EventHandler) Handle(_ context.Context, r slog.Record) error {
	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	var payload string

	var extra []string

	collect := func(a slog.Attr) bool {
		if a.Key == PayloadKey {
			payload = a.Value.String()
			return true
		}

		if a.Key != "" {
			extra = append(extra, fmt.Sprintf("%s=%v", a.Key, a.Value.Any()))
		}

		return true
	}

	for _, a := range h.attrs {
		collect(a)
	}

	r.Attrs(collect)

	if len(extra) > 0 {
		if payload != "" {
			payload += " "
		}

		payload += strings.Join(extra, " ")
	}

	var buf bytes.Buffer

	fmt.Fprintf(&buf, "[%d][%s]: %s\n", ts.Unix(), h.colorFor(r).Sprint(r.Message), payload)

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.w.Write(buf.Bytes())

	return err
}

// WithAttrs returns a handler that includes attrs in every line.
func (h *EventHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)

	return &clone
}

// WithGroup returns h; event lines are flat.
func (h *EventHandler) WithGroup(_ string) slog.Handler {
	return h
}

func (h *EventHandler) colorFor(r slog.Record) *color.Color {
	switch {
	case r.Level >= slog.LevelError:
		return h.fatal
	case strings.HasPrefix(r.Message, "run "):
		return h.run
	case r.Message == "ignore":
		return h.ignore
	default:
		return h.change
	}
}
