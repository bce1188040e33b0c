// Package distribute fans a rendered summary out to every active
// subscriber through the responder bot.
package distribute

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/limzerui/teleNewsBot/internal/store"
	"github.com/limzerui/teleNewsBot/internal/summary"
	kit "github.com/limzerui/teleNewsBot/internal/transport"
	logx "github.com/limzerui/teleNewsBot/pkg/logx"
)

// Sender is the outbound slice of the transport adapter.
type Sender interface {
	SendText(ctx context.Context, to kit.ChatTarget, text string, opt *kit.SendOptions) (kit.MessageRef, error)
}

type Config struct {
	// SendRate paces per-recipient sends. Zero means one per second.
	SendRate rate.Limit
	Location *time.Location
}

// Engine delivers one summary to the whole registry. Passes are
// serialized: the periodic loop and an on-demand force run never
// interleave sends.
type Engine struct {
	store store.Store
	send  Sender
	log   logx.Logger
	loc   *time.Location

	mu      sync.Mutex
	limiter *rate.Limiter
}

func New(cfg Config, st store.Store, send Sender, log logx.Logger) *Engine {
	r := cfg.SendRate
	if r <= 0 {
		r = rate.Every(time.Second)
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Engine{
		store:   st,
		send:    send,
		log:     log,
		loc:     loc,
		limiter: rate.NewLimiter(r, 1),
	}
}

// Distribute renders the artifact once and sends it to every active
// subscriber in turn. A recipient that cannot be reached is deactivated;
// the pass continues. Returns how many sends succeeded.
func (e *Engine) Distribute(ctx context.Context, art *summary.Artifact) (int, error) {
	if art == nil {
		e.log.Warn("no summary to send")
		return 0, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	ids, err := e.store.Active(ctx)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		e.log.Info("no subscribers to send summary to")
		return 0, nil
	}

	text := summary.Render(art, e.loc)
	e.log.Info("sending summary", logx.Int("subscribers", len(ids)))

	sent := 0
	opt := &kit.SendOptions{ParseMode: kit.ParseModeMarkdown}
	for _, id := range ids {
		if err := e.limiter.Wait(ctx); err != nil {
			return sent, err
		}
		if _, err := e.send.SendText(ctx, kit.ChatTarget{ChatID: id}, text, opt); err != nil {
			e.log.Warn("send failed, deactivating subscriber",
				logx.Int64("user_id", id), logx.Err(err))
			if rerr := e.store.Remove(ctx, id); rerr != nil {
				e.log.Error("deactivate failed", logx.Int64("user_id", id), logx.Err(rerr))
			}
			continue
		}
		sent++
	}

	e.log.Info("summary distributed", logx.Int("sent", sent), logx.Int("total", len(ids)))
	return sent, nil
}
