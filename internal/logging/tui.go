package logging

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Record is the message a TUIHandler delivers to the bubbletea program.
type Record struct {
	Time    time.Time
	Level   slog.Level
	Message string
	Attrs   []slog.Attr
}

// Line renders the record as a single log line:
// "15:04:05 INFO message key=value".
func (r Record) Line() string {
	var b strings.Builder
	b.WriteString(r.Time.Format("15:04:05"))
	b.WriteString(" ")
	b.WriteString(LevelName(r.Level))
	b.WriteString(" ")
	b.WriteString(r.Message)
	for _, attr := range r.Attrs {
		fmt.Fprintf(&b, " %s=%s", attr.Key, attr.Value)
	}
	return b.String()
}

// Sender is the part of *tea.Program the handler needs.
type Sender interface {
	Send(msg tea.Msg)
}

type senderRef struct {
	sender Sender
}

// TUIHandler is a slog.Handler that routes records into a bubbletea
// program as Record messages. The worker never touches UI state directly;
// Send hands the record to the program's own event loop.
//
// Records arriving before SetProgram is called are dropped. Handlers
// derived through WithAttrs/WithGroup share the program pointer.
type TUIHandler struct {
	level  slog.Leveler
	target *atomic.Pointer[senderRef]
	attrs  []slog.Attr
	groups []string
}

// NewTUIHandler returns a handler delivering records at or above level.
func NewTUIHandler(level slog.Leveler) *TUIHandler {
	return &TUIHandler{
		level:  level,
		target: &atomic.Pointer[senderRef]{},
	}
}

// SetProgram sets the receiver of log records. Safe from any goroutine.
func (h *TUIHandler) SetProgram(sender Sender) {
	if sender == nil {
		h.target.Store(nil)
		return
	}
	h.target.Store(&senderRef{sender: sender})
}

func (h *TUIHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *TUIHandler) Handle(_ context.Context, record slog.Record) error {
	ref := h.target.Load()
	if ref == nil {
		return nil
	}

	prefix := strings.Join(h.groups, ".")
	attrs := make([]slog.Attr, 0, len(h.attrs)+record.NumAttrs())
	attrs = append(attrs, h.attrs...)
	record.Attrs(func(attr slog.Attr) bool {
		if prefix != "" {
			attr.Key = prefix + "." + attr.Key
		}
		attrs = append(attrs, attr)
		return true
	})

	ref.sender.Send(Record{
		Time:    record.Time,
		Level:   record.Level,
		Message: record.Message,
		Attrs:   attrs,
	})
	return nil
}

func (h *TUIHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	prefix := strings.Join(h.groups, ".")
	merged := sliceClone(h.attrs)
	for _, attr := range attrs {
		if prefix != "" {
			attr.Key = prefix + "." + attr.Key
		}
		merged = append(merged, attr)
	}
	return &TUIHandler{
		level:  h.level,
		target: h.target,
		attrs:  merged,
		groups: sliceClone(h.groups),
	}
}

func (h *TUIHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &TUIHandler{
		level:  h.level,
		target: h.target,
		attrs:  sliceClone(h.attrs),
		groups: append(sliceClone(h.groups), name),
	}
}

func sliceClone[T any](source []T) []T {
	if source == nil {
		return nil
	}
	result := make([]T, len(source))
	copy(result, source)
	return result
}
