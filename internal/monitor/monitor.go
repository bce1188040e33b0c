// Package monitor runs the periodic fetch-summarize-distribute loop.
package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/limzerui/teleNewsBot/internal/channel"
	"github.com/limzerui/teleNewsBot/internal/config"
	"github.com/limzerui/teleNewsBot/internal/distribute"
	"github.com/limzerui/teleNewsBot/internal/summary"
	logx "github.com/limzerui/teleNewsBot/pkg/logx"
)

const (
	// errRetryWait is the short sleep after a failed pass.
	errRetryWait = 60 * time.Second
	// onDemandLookback is the window for test and forced passes.
	onDemandLookback = 2 * time.Hour
)

// Status is a snapshot of the loop for the status command.
type Status struct {
	Connected     bool
	Cursor        int64
	LastCheck     time.Time
	LastDelivered time.Time
}

// Monitor owns the cursor and drives passes. On-demand passes share the
// distribution engine's serialization, so a forced run never interleaves
// with the periodic one.
type Monitor struct {
	cfgm    *config.Manager
	fetch   *Fetcher
	sum     summary.Summarizer
	dist    *distribute.Engine
	conn    *Conn
	log     logx.Logger
	testing bool

	mu            sync.Mutex
	cursor        int64
	lastCheck     time.Time
	lastDelivered time.Time
}

func New(cfgm *config.Manager, fetch *Fetcher, sum summary.Summarizer, dist *distribute.Engine, conn *Conn, testing bool, log logx.Logger) *Monitor {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Monitor{
		cfgm:    cfgm,
		fetch:   fetch,
		sum:     sum,
		dist:    dist,
		conn:    conn,
		log:     log,
		testing: testing,
	}
}

// Run loops until ctx is done. The interval is re-read from live config
// each cycle; a connection error triggers the reconnect path and a short
// retry sleep instead of the full interval.
func (m *Monitor) Run(ctx context.Context) error {
	cfg := m.cfgm.Get()
	m.log.Info("monitoring started",
		logx.String("channel", cfg.Channel.Target),
		logx.Duration("interval", cfg.SummaryInterval(m.testing)))
	if m.testing {
		m.log.Info("running in test mode with shorter intervals")
	}

	scheduled := make(chan struct{}, 1)
	if spec := cfg.Monitor.Schedule; spec != "" {
		c := cron.New()
		if _, err := c.AddFunc(spec, func() {
			select {
			case scheduled <- struct{}{}:
			default:
			}
		}); err != nil {
			m.log.Error("invalid monitor schedule", logx.String("spec", spec), logx.Err(err))
		} else {
			c.Start()
			defer c.Stop()
			m.log.Info("scheduled passes enabled", logx.String("spec", spec))
		}
	}

	for {
		interval := m.cfgm.Get().SummaryInterval(m.testing)
		wait := interval
		if err := m.pass(ctx, interval); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			m.log.Error("monitoring pass failed", logx.Err(err))
			if channel.IsConn(err) {
				_ = m.conn.Reset(ctx)
			}
			wait = errRetryWait
			m.log.Info("sleeping before retry", logx.Duration("wait", wait))
		} else {
			m.log.Info("sleeping until next check", logx.Duration("wait", wait))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-scheduled:
			m.log.Info("scheduled pass triggered")
		case <-time.After(wait):
		}
	}
}

// pass runs one fetch-summarize-distribute cycle over the interval window.
func (m *Monitor) pass(ctx context.Context, lookback time.Duration) error {
	// A failed inline reconnect degrades this cycle to an empty fetch; the
	// next interval retries.
	if err := m.conn.Ensure(ctx); err != nil {
		m.log.Warn("reader unavailable, skipping cycle", logx.Err(err))
		return nil
	}

	msgs, err := m.fetch.Fetch(ctx, lookback)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.lastCheck = time.Now()
	newest := int64(0)
	for _, msg := range msgs {
		if msg.ID > newest {
			newest = msg.ID
		}
	}
	// Summarize whenever the newest id differs from the cursor, not just
	// when it advances: if the window ever regresses the batch is new again.
	if len(msgs) == 0 || newest == m.cursor {
		m.mu.Unlock()
		m.log.Info("no new messages to summarize or same as last batch")
		return nil
	}
	// Advance before summarizing: a failed delivery must not replay the
	// same batch next cycle.
	m.cursor = newest
	m.mu.Unlock()

	art, err := m.sum.Summarize(ctx, texts(msgs))
	if err != nil {
		return err
	}
	if _, err := m.dist.Distribute(ctx, art); err != nil {
		return err
	}

	m.mu.Lock()
	m.lastDelivered = time.Now()
	m.mu.Unlock()
	m.log.Info("summary pass complete", logx.Int("messages", len(msgs)))
	return nil
}

// Preview summarizes the on-demand window without touching the cursor or
// distributing. Returns nil when the window is empty.
func (m *Monitor) Preview(ctx context.Context) (*summary.Artifact, error) {
	if err := m.conn.Ensure(ctx); err != nil {
		m.log.Warn("reader unavailable, skipping fetch", logx.Err(err))
		return nil, nil
	}
	msgs, err := m.fetch.Fetch(ctx, onDemandLookback)
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, nil
	}
	return m.sum.Summarize(ctx, texts(msgs))
}

// Force summarizes the on-demand window and distributes to everyone.
// Returns the artifact and how many sends succeeded; a nil artifact means
// the window was empty.
func (m *Monitor) Force(ctx context.Context) (*summary.Artifact, int, error) {
	art, err := m.Preview(ctx)
	if err != nil || art == nil {
		return nil, 0, err
	}
	sent, err := m.dist.Distribute(ctx, art)
	return art, sent, err
}

// Distribute delivers an already-built artifact, for the test command's
// delivery check.
func (m *Monitor) Distribute(ctx context.Context, art *summary.Artifact) (int, error) {
	return m.dist.Distribute(ctx, art)
}

func (m *Monitor) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := Status{
		Cursor:        m.cursor,
		LastCheck:     m.lastCheck,
		LastDelivered: m.lastDelivered,
	}
	st.Connected = m.conn.Connected()
	return st
}

func texts(msgs []channel.Message) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Text)
	}
	return out
}
