package monitor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/limzerui/teleNewsBot/internal/channel"
	logx "github.com/limzerui/teleNewsBot/pkg/logx"
)

// Fetcher pulls a time window of messages from the monitored channel.
type Fetcher struct {
	src    channel.Source
	target string
	log    logx.Logger

	mu     sync.Mutex
	handle channel.Handle
}

func NewFetcher(src channel.Source, target string, log logx.Logger) *Fetcher {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Fetcher{src: src, target: target, log: log}
}

// resolve caches the channel handle. The alternate @-form is tried once
// before giving up.
func (f *Fetcher) resolve(ctx context.Context) (channel.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.handle.Name != "" {
		return f.handle, nil
	}

	h, err := f.src.Resolve(ctx, f.target)
	if errors.Is(err, channel.ErrNotFound) {
		alt := "@" + strings.TrimPrefix(f.target, "@")
		h, err = f.src.Resolve(ctx, alt)
	}
	if err != nil {
		return channel.Handle{}, err
	}
	f.handle = h
	return h, nil
}

// batchLimit widens the fetch cap for long windows.
func batchLimit(lookback time.Duration) int {
	if lookback >= 3*time.Hour {
		return 500
	}
	return 50
}

// Fetch returns the window's messages newest-first, empty-text posts
// dropped. An unresolvable channel is logged and yields an empty batch;
// transport failures propagate so the caller can reconnect.
func (f *Fetcher) Fetch(ctx context.Context, lookback time.Duration) ([]channel.Message, error) {
	h, err := f.resolve(ctx)
	if err != nil {
		if channel.IsConn(err) {
			return nil, err
		}
		f.log.Error("channel not found", logx.String("channel", f.target), logx.Err(err))
		return nil, nil
	}

	since := time.Now().Add(-lookback)
	limit := batchLimit(lookback)
	f.log.Info("fetching messages",
		logx.String("channel", h.Name),
		logx.Time("since", since),
		logx.Int("limit", limit))

	msgs, err := f.src.History(ctx, h, since, limit)
	if err != nil {
		return nil, err
	}

	// History returns newest-first; keep that order so the summarizer sees
	// the batch the way it was fetched.
	out := msgs[:0]
	for _, m := range msgs {
		if strings.TrimSpace(m.Text) == "" {
			continue
		}
		out = append(out, m)
	}

	f.log.Info("fetched messages",
		logx.String("channel", h.Name),
		logx.Int("count", len(out)),
		logx.Int("limit", limit))
	return out, nil
}
