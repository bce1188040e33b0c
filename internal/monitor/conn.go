package monitor

import (
	"context"
	"time"

	"github.com/limzerui/teleNewsBot/internal/channel"
	logx "github.com/limzerui/teleNewsBot/pkg/logx"
)

// Conn supervises the reader identity's session. Startup connection
// failures are fatal for the caller; mid-run failures go through Reset,
// which tears the session down, waits, and dials again.
type Conn struct {
	reader channel.Lifecycle
	log    logx.Logger
	wait   time.Duration
}

func NewConn(reader channel.Lifecycle, log logx.Logger) *Conn {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Conn{reader: reader, log: log, wait: 5 * time.Second}
}

func (c *Conn) Connect(ctx context.Context) error {
	return c.reader.Connect(ctx)
}

func (c *Conn) Connected() bool { return c.reader.Connected() }

// Ensure reconnects a dropped reader session before a fetch. One attempt;
// the caller decides what a failure means.
func (c *Conn) Ensure(ctx context.Context) error {
	if c.reader.Connected() {
		return nil
	}
	c.log.Warn("reader disconnected, attempting to reconnect")
	if err := c.reader.Connect(ctx); err != nil {
		return err
	}
	c.log.Info("reader reconnected")
	return nil
}

// Reset handles a connection error surfaced mid-pass: drop the session,
// pause briefly, reconnect.
func (c *Conn) Reset(ctx context.Context) error {
	c.reader.Disconnect()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.wait):
	}
	if err := c.reader.Connect(ctx); err != nil {
		c.log.Error("reconnect failed", logx.Err(err))
		return err
	}
	c.log.Info("reconnected after connection error")
	return nil
}
