package obs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/five82/lookout/internal/roster"
)

// Bridge keeps one OBS session and drives the stream for the watched
// identity. It reconnects on the next call after a failure.
type Bridge struct {
	Addr     string
	Password string
	Server   string // RTMP ingest URL; empty keeps OBS's current server
	Logger   *slog.Logger

	mu     sync.Mutex
	client *Client
}

// Start pushes the identity's stream key (when it has one) and starts
// streaming.
func (b *Bridge) Start(ctx context.Context, id roster.Identity) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	client, err := b.connect(ctx)
	if err != nil {
		return err
	}
	if id.StreamKey != "" {
		if err := client.SetStreamKey(ctx, b.Server, id.StreamKey); err != nil {
			b.drop()
			return fmt.Errorf("set stream key: %w", err)
		}
	}
	if err := client.StartStream(ctx); err != nil {
		b.drop()
		return fmt.Errorf("start stream: %w", err)
	}
	b.logger().Info("stream started", "identity", id.Name, "channel", id.Channel)
	return nil
}

// Stop stops streaming.
func (b *Bridge) Stop(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	client, err := b.connect(ctx)
	if err != nil {
		return err
	}
	if err := client.StopStream(ctx); err != nil {
		b.drop()
		return fmt.Errorf("stop stream: %w", err)
	}
	return nil
}

// Close releases the OBS session.
func (b *Bridge) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.client == nil {
		return nil
	}
	err := b.client.Close()
	b.client = nil
	return err
}

func (b *Bridge) connect(ctx context.Context) (*Client, error) {
	if b.client != nil {
		return b.client, nil
	}
	client, err := Dial(ctx, b.Addr, b.Password)
	if err != nil {
		return nil, err
	}
	b.client = client
	return client, nil
}

func (b *Bridge) drop() {
	if b.client != nil {
		_ = b.client.Close()
		b.client = nil
	}
}

func (b *Bridge) logger() *slog.Logger {
	if b.Logger == nil {
		return slog.Default()
	}
	return b.Logger
}
