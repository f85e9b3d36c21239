package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSender struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (c *captureSender) Send(msg tea.Msg) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, msg)
}

func (c *captureSender) records() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Record
	for _, msg := range c.msgs {
		if rec, ok := msg.(Record); ok {
			out = append(out, rec)
		}
	}
	return out
}

func TestLevelName(t *testing.T) {
	tests := []struct {
		level slog.Level
		want  string
	}{
		{slog.LevelDebug, "DEBUG"},
		{slog.LevelInfo, "INFO"},
		{LevelSuccess, "SUCCESS"},
		{slog.LevelWarn, "WARNING"},
		{slog.LevelError, "ERROR"},
		{slog.LevelError + 4, "ERROR"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelName(tt.level))
	}
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)

	level, err = ParseLevel(" success ")
	require.NoError(t, err)
	assert.Equal(t, LevelSuccess, level)

	level, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)

	_, err = ParseLevel("loud")
	require.Error(t, err)
}

func TestTextHandlerRendersSinkLevelNames(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewTextHandler(&buf, slog.LevelDebug))

	Success(context.Background(), logger, "live", "identity", "Faker")
	logger.Warn("slow")

	out := buf.String()
	assert.Contains(t, out, "level=SUCCESS")
	assert.Contains(t, out, "identity=Faker")
	assert.Contains(t, out, "level=WARNING")
}

func TestTUIHandlerDropsUntilProgramSet(t *testing.T) {
	handler := NewTUIHandler(slog.LevelInfo)
	logger := slog.New(handler)

	logger.Info("before")

	sender := &captureSender{}
	handler.SetProgram(sender)
	logger.With("stage", "Launching").WithGroup("match").Info("after", "id", 42)
	logger.Debug("filtered")

	records := sender.records()
	require.Len(t, records, 1)
	rec := records[0]
	assert.Equal(t, "after", rec.Message)
	require.Len(t, rec.Attrs, 2)
	assert.Equal(t, "stage", rec.Attrs[0].Key)
	assert.Equal(t, "match.id", rec.Attrs[1].Key)
}

func TestRecordLine(t *testing.T) {
	rec := Record{
		Time:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Level:   slog.LevelError,
		Message: "launch failed",
		Attrs:   []slog.Attr{slog.String("identity", "Caps")},
	}
	assert.Equal(t, "03:04:05 ERROR launch failed identity=Caps", rec.Line())
}

func TestFanoutRespectsPerHandlerLevels(t *testing.T) {
	var debugBuf, warnBuf bytes.Buffer
	logger := slog.New(Fanout{
		NewTextHandler(&debugBuf, slog.LevelDebug),
		NewTextHandler(&warnBuf, slog.LevelWarn),
	})

	logger.Debug("noise")
	logger.Error("boom")

	assert.True(t, strings.Contains(debugBuf.String(), "noise"))
	assert.True(t, strings.Contains(debugBuf.String(), "boom"))
	assert.False(t, strings.Contains(warnBuf.String(), "noise"))
	assert.True(t, strings.Contains(warnBuf.String(), "boom"))
}
