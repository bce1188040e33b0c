// Package app wires the bot together: config, logging, store, the two
// Telegram identities, the command dispatcher, and the monitoring loop.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/limzerui/teleNewsBot/internal/channel/preview"
	"github.com/limzerui/teleNewsBot/internal/config"
	"github.com/limzerui/teleNewsBot/internal/distribute"
	"github.com/limzerui/teleNewsBot/internal/monitor"
	"github.com/limzerui/teleNewsBot/internal/router"
	"github.com/limzerui/teleNewsBot/internal/runtime/supervisor"
	"github.com/limzerui/teleNewsBot/internal/store"
	"github.com/limzerui/teleNewsBot/internal/summary"
	kit "github.com/limzerui/teleNewsBot/internal/transport"
	"github.com/limzerui/teleNewsBot/internal/transport/telegram"
	logx "github.com/limzerui/teleNewsBot/pkg/logx"
)

// Options tweak startup behavior from the command line.
type Options struct {
	// Testing shortens the monitoring interval.
	Testing bool
	// AdminID, when set, is enrolled as a subscriber at startup.
	AdminID int64
}

type App struct {
	opts Options

	cfgm *config.Manager
	sup  *supervisor.Supervisor

	log  logx.Logger
	logs *logx.Service

	store   store.Store
	reader  *preview.Client
	adapter *telegram.Adapter
	mon     *monitor.Monitor
	disp    *router.Dispatcher

	updates chan kit.Update
}

func New(cfgPath string, opts Options) (*App, error) {
	bootLog := logx.NewConsole("info")

	cfgm := config.NewManager(cfgPath, bootLog.With(logx.String("comp", "config")))
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logs, log := logx.New(logx.Config{
		Level:   cfg.Log.Level,
		Console: true,
		File: logx.FileConfig{
			Enabled: cfg.Log.File != "",
			Path:    cfg.Log.File,
		},
	})
	log = log.With(logx.String("comp", "app"))

	st, err := store.Open(store.Config{
		Driver: cfg.Store.Driver,
		Path:   cfg.Store.Path,
		URL:    cfg.Store.URL,
	}, log.With(logx.String("comp", "store")))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	adapter, err := telegram.New(telegram.Config{
		Token:       cfg.Telegram.BotToken,
		PollTimeout: cfg.Telegram.PollTimeout.Std(),
	}, log.With(logx.String("comp", "telegram")))
	if err != nil {
		return nil, fmt.Errorf("telegram adapter: %w", err)
	}

	reader := preview.New(preview.Config{
		BaseURL: cfg.Channel.PreviewBaseURL,
	}, log.With(logx.String("comp", "reader")))

	sum := summary.NewClient(summary.Config{
		APIKey: cfg.OpenAI.APIKey,
		Model:  cfg.OpenAI.Model,
	}, log.With(logx.String("comp", "summary")))

	dist := distribute.New(distribute.Config{
		Location: cfg.Location(),
	}, st, adapter, log.With(logx.String("comp", "distribute")))

	fetch := monitor.NewFetcher(reader, cfg.Channel.Target, log.With(logx.String("comp", "fetch")))
	conn := monitor.NewConn(reader, log.With(logx.String("comp", "conn")))
	mon := monitor.New(cfgm, fetch, sum, dist, conn, opts.Testing, log.With(logx.String("comp", "monitor")))

	disp := router.NewDispatcher(adapter, cfgm, router.Commands(router.Deps{
		Store:   st,
		Monitor: mon,
		Cfgm:    cfgm,
		Log:     log.With(logx.String("comp", "commands")),
	}), log.With(logx.String("comp", "router")))

	return &App{
		opts:    opts,
		cfgm:    cfgm,
		log:     log,
		logs:    logs,
		store:   st,
		reader:  reader,
		adapter: adapter,
		mon:     mon,
		disp:    disp,
		updates: make(chan kit.Update, 128),
	}, nil
}

// Start connects everything and launches the loops. Connection failures
// here are fatal: a bot that cannot reach its store, its channel, or
// Telegram has nothing to do.
func (a *App) Start(ctx context.Context) error {
	a.sup = supervisor.New(ctx,
		supervisor.WithLogger(a.log.With(logx.String("comp", "supervisor"))),
		supervisor.WithCancelOnError(true))

	if err := a.store.Connect(a.sup.Context()); err != nil {
		return fmt.Errorf("connect store: %w", err)
	}
	if err := a.reader.Connect(a.sup.Context()); err != nil {
		return fmt.Errorf("connect reader: %w", err)
	}
	if err := a.adapter.Start(a.sup.Context(), a.updates); err != nil {
		return fmt.Errorf("start responder: %w", err)
	}

	if a.opts.AdminID != 0 {
		if err := a.store.Add(a.sup.Context(), store.Subscriber{UserID: a.opts.AdminID, Username: "admin"}); err != nil {
			a.log.Warn("admin enrollment failed", logx.Int64("admin_id", a.opts.AdminID), logx.Err(err))
		}
	}

	a.sup.Go("commands.dispatch", func(c context.Context) error {
		return a.disp.DispatchLoop(c, a.updates)
	})
	a.sup.Go("monitor.loop", func(c context.Context) error {
		return a.mon.Run(c)
	})
	a.sup.Go("config.watch", func(c context.Context) error {
		return a.cfgm.Watch(c)
	})
	a.sup.Go0("config.reload", func(c context.Context) {
		ch := a.cfgm.Subscribe(1)
		defer a.cfgm.Unsubscribe(ch)
		for {
			select {
			case <-c.Done():
				return
			case cfg, ok := <-ch:
				if !ok {
					return
				}
				a.logs.Apply(logx.Config{
					Level:   cfg.Log.Level,
					Console: true,
					File: logx.FileConfig{
						Enabled: cfg.Log.File != "",
						Path:    cfg.Log.File,
					},
				})
				a.log.Info("runtime config applied", logx.String("level", cfg.Log.Level))
			}
		}
	})

	a.log.Info("bot is running, listening for commands")
	return nil
}

// Done is closed when the supervisor context ends (fatal error or Stop).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return a.sup.Context().Done()
}

func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

// Stop shuts down in dependency order: stop taking input, stop loops,
// then release the store.
func (a *App) Stop(ctx context.Context) error {
	a.log.Info("shutting down")

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err := a.adapter.Stop(stopCtx); err != nil {
		a.log.Warn("responder stop failed", logx.Err(err))
	}
	a.reader.Disconnect()

	if a.sup != nil {
		a.sup.Cancel()
		_ = a.sup.Wait(stopCtx)
	}

	if err := a.store.Close(); err != nil {
		a.log.Warn("store close failed", logx.Err(err))
	}

	a.log.Info("shutdown complete")
	if a.logs != nil {
		_ = a.logs.Close()
	}
	return nil
}
