package preview

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/limzerui/teleNewsBot/internal/channel"
	logx "github.com/limzerui/teleNewsBot/pkg/logx"
)

func messageHTML(name string, id int64, at time.Time, text string) string {
	return fmt.Sprintf(`
<div class="tgme_widget_message" data-post="%s/%d">
  <div class="tgme_widget_message_text">%s</div>
  <a class="tgme_widget_message_date"><time datetime="%s"></time></a>
</div>`, name, id, text, at.Format(time.RFC3339))
}

func channelPage(name, title string, body string) string {
	return fmt.Sprintf(`<html><body>
<div class="tgme_channel_info"><div class="tgme_channel_info_header_title">%s</div></div>
%s
</body></html>`, title, body)
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL}, logx.Nop())
}

func TestResolve(t *testing.T) {
	t.Parallel()
	now := time.Now().UTC().Truncate(time.Second)
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/s/marketfeed":
			fmt.Fprint(w, channelPage("marketfeed", "Market Feed", messageHTML("marketfeed", 1, now, "hi")))
		default:
			fmt.Fprint(w, "<html><body>nothing here</body></html>")
		}
	}))

	h, err := c.Resolve(context.Background(), "@marketfeed")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if h.Name != "marketfeed" || h.Title != "Market Feed" {
		t.Fatalf("handle = %+v", h)
	}

	if _, err := c.Resolve(context.Background(), "ghost"); err != channel.ErrNotFound {
		t.Fatalf("Resolve ghost = %v, want ErrNotFound", err)
	}
}

func TestHistoryNewestFirstWithinWindow(t *testing.T) {
	t.Parallel()
	now := time.Now().UTC().Truncate(time.Second)
	page := channelPage("feed", "Feed",
		messageHTML("feed", 1, now.Add(-3*time.Hour), "stale")+
			messageHTML("feed", 2, now.Add(-30*time.Minute), "older")+
			messageHTML("feed", 3, now.Add(-5*time.Minute), "newer"))

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, page)
	}))

	msgs, err := c.History(context.Background(), channel.Handle{Name: "feed"}, now.Add(-time.Hour), 50)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("len = %d, want 2 (message outside window dropped)", len(msgs))
	}
	if msgs[0].ID != 3 || msgs[1].ID != 2 {
		t.Fatalf("order = [%d %d], want newest first [3 2]", msgs[0].ID, msgs[1].ID)
	}
	if msgs[0].Text != "newer" {
		t.Fatalf("Text = %q", msgs[0].Text)
	}
}

func TestHistoryRespectsLimit(t *testing.T) {
	t.Parallel()
	now := time.Now().UTC().Truncate(time.Second)
	var b strings.Builder
	for i := int64(1); i <= 10; i++ {
		b.WriteString(messageHTML("feed", i, now, fmt.Sprintf("m%d", i)))
	}
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, channelPage("feed", "Feed", b.String()))
	}))

	msgs, err := c.History(context.Background(), channel.Handle{Name: "feed"}, now.Add(-time.Hour), 4)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(msgs) != 4 {
		t.Fatalf("len = %d, want 4", len(msgs))
	}
	if msgs[0].ID != 10 {
		t.Fatalf("first ID = %d, want 10", msgs[0].ID)
	}
}

func TestHistoryTransportErrorFlipsConnected(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)
	c := New(Config{BaseURL: srv.URL}, logx.Nop())
	c.connected.Store(true)

	_, err := c.History(context.Background(), channel.Handle{Name: "feed"}, time.Now().Add(-time.Hour), 50)
	if !channel.IsConn(err) {
		t.Fatalf("err = %v, want connection error", err)
	}
	if c.Connected() {
		t.Fatal("transport failure must mark the reader disconnected")
	}
}

func TestMessageIDFromPost(t *testing.T) {
	t.Parallel()
	tests := []struct {
		post string
		want int64
	}{
		{"marketfeed/123", 123},
		{"a/b/456", 456},
		{"marketfeed/", 0},
		{"noslash", 0},
		{"feed/notanumber", 0},
	}
	for _, tt := range tests {
		if got := messageIDFromPost(tt.post); got != tt.want {
			t.Fatalf("messageIDFromPost(%q) = %d, want %d", tt.post, got, tt.want)
		}
	}
}

func TestNormalizeName(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want string
	}{
		{"marketfeed", "marketfeed"},
		{"@marketfeed", "marketfeed"},
		{"https://t.me/marketfeed", "marketfeed"},
		{"t.me/marketfeed/", "marketfeed"},
		{"  @feed  ", "feed"},
	}
	for _, tt := range tests {
		if got := normalizeName(tt.in); got != tt.want {
			t.Fatalf("normalizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
