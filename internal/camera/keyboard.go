package camera

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Keyboard injects synthetic key taps into the focused window.
type Keyboard interface {
	Tap(ctx context.Context, key Key) error
}

// Xdotool taps keys through the xdotool binary.
type Xdotool struct {
	Path string // defaults to "xdotool" on PATH
}

func (x Xdotool) Tap(ctx context.Context, key Key) error {
	path := x.Path
	if path == "" {
		path = "xdotool"
	}
	cmd := exec.CommandContext(ctx, path, "key", "--clearmodifiers", string(key))
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("xdotool key %s: %w: %s", key, err, msg)
		}
		return fmt.Errorf("xdotool key %s: %w", key, err)
	}
	return nil
}

// Noop drops every tap.
type Noop struct{}

func (Noop) Tap(context.Context, Key) error { return nil }
