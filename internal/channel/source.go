package channel

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound reports that a channel name could not be resolved.
var ErrNotFound = errors.New("channel not found")

// ConnError wraps a transport-level failure against the reader identity.
// Callers match it with errors.As / IsConn to pick the reconnect path instead
// of sniffing error text.
type ConnError struct {
	Op  string
	Err error
}

func (e *ConnError) Error() string { return fmt.Sprintf("channel %s: %v", e.Op, e.Err) }
func (e *ConnError) Unwrap() error { return e.Err }

// IsConn reports whether err carries a connection failure.
func IsConn(err error) bool {
	var ce *ConnError
	return errors.As(err, &ce)
}

// Handle identifies a resolved channel.
type Handle struct {
	Name  string
	Title string
}

// Message is one broadcast post. Transient: it lives only for the duration of
// a fetch/summarize cycle.
type Message struct {
	ID   int64
	Date time.Time
	Text string
}

// Source reads recent messages from the monitored broadcast channel.
//
// History returns messages newest-first, bounded by limit, no older than
// since. Implementations must be restartable per call.
type Source interface {
	Resolve(ctx context.Context, name string) (Handle, error)
	History(ctx context.Context, h Handle, since time.Time, limit int) ([]Message, error)
}

// Lifecycle is implemented by sources that hold a connection-like state the
// monitor can probe and re-establish.
type Lifecycle interface {
	Connect(ctx context.Context) error
	Connected() bool
	Disconnect()
}
