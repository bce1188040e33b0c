package router

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/limzerui/teleNewsBot/internal/config"
	"github.com/limzerui/teleNewsBot/internal/monitor"
	"github.com/limzerui/teleNewsBot/internal/store"
	"github.com/limzerui/teleNewsBot/internal/summary"
	logx "github.com/limzerui/teleNewsBot/pkg/logx"
)

// Deps is everything the command handlers touch.
type Deps struct {
	Store   store.Store
	Monitor *monitor.Monitor
	Cfgm    *config.Manager
	Log     logx.Logger
}

// Commands builds the full command registry.
func Commands(d Deps) []Command {
	return []Command{
		{
			Name:        "start",
			Aliases:     []string{"subscribe"},
			Description: "Subscribe to financial news summaries",
			Handle:      d.handleStart,
		},
		{
			Name:        "stop",
			Aliases:     []string{"unsubscribe"},
			Description: "Unsubscribe from updates",
			Handle:      d.handleStop,
		},
		{
			Name:        "help",
			Description: "Show this help message",
			Handle:      d.handleHelp,
		},
		{
			Name:        "status",
			Description: "Show bot status and subscriber count",
			Handle:      d.handleStatus,
		},
		{
			Name:        "test",
			Aliases:     []string{"test-analysis"},
			Description: "Send a test summary (for testing purposes)",
			Handle:      d.handleTest,
		},
		{
			Name:        "force_update",
			Aliases:     []string{"force-distribute"},
			Description: "Force an immediate update to all subscribers",
			Handle:      d.handleForceUpdate,
		},
		{
			Name:        "subscribe_me",
			Aliases:     []string{"subscribe-alt"},
			Description: "Special command to subscribe yourself",
			Handle:      d.handleSubscribeMe,
		},
		{
			Name:        "subscribers",
			Description: "List all subscribers",
			OwnerOnly:   true,
			Handle:      d.handleSubscribers,
		},
	}
}

func (d Deps) subscribe(ctx context.Context, req *Request) error {
	return d.Store.Add(ctx, store.Subscriber{
		UserID:    req.FromID,
		Username:  req.Username,
		FirstName: req.FirstName,
	})
}

func (d Deps) handleStart(ctx context.Context, req *Request) error {
	if err := d.subscribe(ctx, req); err != nil {
		return fmt.Errorf("add subscriber: %w", err)
	}

	welcome := fmt.Sprintf(`
👋 Welcome %s! You're now subscribed to financial news summaries.

The bot will send you regular summaries of financial news with:
- Comprehensive market analysis and key developments
- Detailed stock impact analysis with reasoning
- Market sentiment and sector analysis
- Confidence levels and expected impact magnitude
- Actionable market implications

Available commands:
/test - Generate a test summary now
/status - Check bot status
/help - Show all commands
/stop - Unsubscribe
/force_update - Force an immediate update to all subscribers

You will receive summaries automatically every 3 hours with detailed analysis of potentially impacted stocks and market sectors.
`, req.FirstName)
	if err := req.Respond(ctx, welcome); err != nil {
		return err
	}
	return req.Respond(ctx, "This is a test message to verify I can send you direct messages. If you see this, communication is working correctly!")
}

func (d Deps) handleStop(ctx context.Context, req *Request) error {
	if err := d.Store.Remove(ctx, req.FromID); err != nil {
		return fmt.Errorf("remove subscriber: %w", err)
	}
	return req.Respond(ctx, "You've been unsubscribed from financial news summaries. Use /start to subscribe again.")
}

func (d Deps) handleHelp(ctx context.Context, req *Request) error {
	help := `
📈 **Financial News Bot - Commands**:

/start - Subscribe to financial news summaries
/stop - Unsubscribe from updates
/help - Show this help message
/status - Show bot status and subscriber count
/test - Send a test summary (for testing purposes)
/subscribe_me - Special command to subscribe yourself
/force_update - Force an immediate update to all subscribers

This bot monitors financial news channels and provides detailed summaries every 3 hours, including:
• Comprehensive market analysis
• Detailed stock impact analysis with reasoning
• Confidence levels and expected impact magnitude
• Sector-wide implications
• Actionable market insights
`
	return req.Respond(ctx, help)
}

func (d Deps) handleStatus(ctx context.Context, req *Request) error {
	count, err := d.Store.Count(ctx)
	if err != nil {
		return fmt.Errorf("count subscribers: %w", err)
	}
	cfg := d.Cfgm.Get()
	st := d.Monitor.Status()

	lastCheck := "never"
	if !st.LastDelivered.IsZero() {
		lastCheck = st.LastDelivered.In(cfg.Location()).Format("2006-01-02 15:04:05")
	} else if !st.LastCheck.IsZero() {
		lastCheck = st.LastCheck.In(cfg.Location()).Format("2006-01-02 15:04:05")
	}
	status := fmt.Sprintf(`
🤖 **Bot Status**:
- Active: ✅
- Subscribers: %d
- Last check: %s
- Target channel: %s
`, count, lastCheck, cfg.Channel.Target)
	return req.Respond(ctx, status)
}

func (d Deps) handleTest(ctx context.Context, req *Request) error {
	// Testing implies wanting the output, so the requester is enrolled.
	if err := d.subscribe(ctx, req); err != nil {
		return fmt.Errorf("add subscriber: %w", err)
	}
	if err := req.Respond(ctx, "Fetching latest news and generating a test summary..."); err != nil {
		return err
	}

	art, err := d.Monitor.Preview(ctx)
	if err != nil {
		_ = req.Respond(ctx, "Error generating summary.")
		return err
	}
	if art == nil {
		return req.Respond(ctx, "No messages found to summarize.")
	}

	if err := req.Respond(ctx, summary.Render(art, d.Cfgm.Get().Location())); err != nil {
		return err
	}

	if err := req.Respond(ctx, "Now testing automatic delivery method, check for another message..."); err != nil {
		return err
	}
	if _, err := d.Monitor.Distribute(ctx, art); err != nil {
		return err
	}
	return req.Respond(ctx, "✅ Automatic delivery test successful! You should have received another copy.")
}

func (d Deps) handleForceUpdate(ctx context.Context, req *Request) error {
	if err := req.Respond(ctx, "Forcing an immediate update to all subscribers..."); err != nil {
		return err
	}

	art, _, err := d.Monitor.Force(ctx)
	if err != nil {
		_ = req.Respond(ctx, "Error generating summary.")
		return err
	}
	if art == nil {
		return req.Respond(ctx, "No messages found to summarize.")
	}
	return req.Respond(ctx, "✅ Force update sent successfully to subscribers!")
}

func (d Deps) handleSubscribeMe(ctx context.Context, req *Request) error {
	if err := d.subscribe(ctx, req); err != nil {
		return fmt.Errorf("add subscriber: %w", err)
	}
	return req.Respond(ctx, fmt.Sprintf("👋 Welcome %s! You're now subscribed to financial news summaries.", req.FirstName))
}

func (d Deps) handleSubscribers(ctx context.Context, req *Request) error {
	subs, err := d.Store.All(ctx)
	if err != nil {
		return fmt.Errorf("list subscribers: %w", err)
	}
	if len(subs) == 0 {
		return req.Respond(ctx, "No subscribers found.")
	}

	loc := d.Cfgm.Get().Location()
	active := 0
	var b strings.Builder
	for _, s := range subs {
		status := "❌ Inactive"
		if s.Active {
			status = "✅ Active"
			active++
		}
		username := s.Username
		if username == "" {
			username = "-"
		}
		fmt.Fprintf(&b, "%d  @%s  %s  %s  %s\n",
			s.UserID, username, s.FirstName,
			s.SubscribedAt.In(loc).Format(time.DateTime), status)
	}

	head := fmt.Sprintf("👥 **Subscribers**: %d active out of %d total\n\n", active, len(subs))
	return req.Respond(ctx, head+b.String())
}
