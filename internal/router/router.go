// Package router dispatches recipient commands from the responder bot to
// a static registry of handlers.
package router

import (
	"context"
	"runtime"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/limzerui/teleNewsBot/internal/config"
	kit "github.com/limzerui/teleNewsBot/internal/transport"
	logx "github.com/limzerui/teleNewsBot/pkg/logx"
)

// Request carries one parsed command invocation.
type Request struct {
	Chat      kit.ChatTarget
	FromID    int64
	Username  string
	FirstName string
	Args      []string

	send kit.Adapter
}

// Respond sends a Markdown reply to the requesting chat.
func (r *Request) Respond(ctx context.Context, text string) error {
	_, err := r.send.SendText(ctx, r.Chat, text, &kit.SendOptions{ParseMode: kit.ParseModeMarkdown})
	return err
}

type HandlerFunc func(ctx context.Context, req *Request) error

type Command struct {
	Name        string
	Aliases     []string
	Description string
	OwnerOnly   bool
	Handle      HandlerFunc
}

// Dispatcher routes inbound updates to command handlers through a small
// worker pool. The registry is fixed at construction.
type Dispatcher struct {
	log     logx.Logger
	adapter kit.Adapter
	cfgm    *config.Manager

	commands []Command
	byName   map[string]*Command

	jobsMu sync.Mutex
	jobs   chan func()
}

func NewDispatcher(adapter kit.Adapter, cfgm *config.Manager, commands []Command, log logx.Logger) *Dispatcher {
	if log.IsZero() {
		log = logx.Nop()
	}
	d := &Dispatcher{
		log:      log,
		adapter:  adapter,
		cfgm:     cfgm,
		commands: commands,
		byName:   make(map[string]*Command),
		jobs:     make(chan func(), 64),
	}
	for i := range d.commands {
		c := &d.commands[i]
		d.byName[c.Name] = c
		for _, a := range c.Aliases {
			d.byName[a] = c
		}
	}
	return d
}

// Commands returns the registry in registration order.
func (d *Dispatcher) Commands() []Command { return d.commands }

func (d *Dispatcher) tryEnqueue(fn func()) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	select {
	case d.jobs <- fn:
		return true
	default:
		return false
	}
}

// DispatchLoop consumes updates until ctx is done or the channel closes.
func (d *Dispatcher) DispatchLoop(ctx context.Context, updates <-chan kit.Update) error {
	workers := runtime.NumCPU()
	if workers < 2 {
		workers = 2
	}
	if workers > 8 {
		workers = 8
	}
	d.log.Info("command dispatcher started",
		logx.Int("workers", workers),
		logx.Int("commands", len(d.commands)))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		idx := i
		go func() {
			defer wg.Done()
			for fn := range d.jobs {
				func() {
					defer func() {
						if r := recover(); r != nil {
							d.log.Error("panic in command handler",
								logx.Int("worker", idx),
								logx.Any("panic", r),
								logx.String("stack", string(debug.Stack())))
						}
					}()
					fn()
				}()
			}
		}()
	}

	defer func() {
		d.jobsMu.Lock()
		close(d.jobs)
		d.jobsMu.Unlock()

		done := make(chan struct{})
		go func() { wg.Wait(); close(done) }()
		select {
		case <-done:
		case <-time.After(3 * time.Second):
		}
		d.log.Info("command dispatcher stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case up, ok := <-updates:
			if !ok {
				return nil
			}
			d.route(ctx, up)
		}
	}
}

func (d *Dispatcher) route(ctx context.Context, up kit.Update) {
	msg := up.Message
	if msg == nil || !strings.HasPrefix(msg.Text, "/") {
		return
	}

	fields := strings.Fields(msg.Text)
	name := strings.TrimPrefix(fields[0], "/")
	// Strip the "@botname" suffix Telegram appends in groups.
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}

	cmd, ok := d.byName[name]
	if !ok {
		d.log.Debug("unknown command", logx.String("command", name), logx.Int64("from", msg.FromID))
		return
	}

	if cmd.OwnerOnly {
		owner := d.cfgm.Get().OwnerID
		if owner == 0 || msg.FromID != owner {
			d.log.Warn("owner-only command denied",
				logx.String("command", cmd.Name),
				logx.Int64("from", msg.FromID))
			return
		}
	}

	req := &Request{
		Chat:      kit.ChatTarget{ChatID: msg.ChatID},
		FromID:    msg.FromID,
		Username:  msg.Username,
		FirstName: msg.FirstName,
		Args:      fields[1:],
		send:      d.adapter,
	}

	d.log.Info("command received",
		logx.String("command", cmd.Name),
		logx.Int64("user_id", msg.FromID),
		logx.String("username", msg.Username))

	if !d.tryEnqueue(func() {
		hctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
		defer cancel()
		if err := cmd.Handle(hctx, req); err != nil {
			d.log.Error("command failed",
				logx.String("command", cmd.Name),
				logx.Int64("user_id", msg.FromID),
				logx.Err(err))
		}
	}) {
		d.log.Warn("command queue full, dropping",
			logx.String("command", cmd.Name),
			logx.String("queue", strconv.Itoa(len(d.jobs))+"/"+strconv.Itoa(cap(d.jobs))))
	}
}
