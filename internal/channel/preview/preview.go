// Package preview reads a public Telegram channel through its t.me/s web
// preview. This is the reader identity: observe-only, never sends.
package preview

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/limzerui/teleNewsBot/internal/channel"
	logx "github.com/limzerui/teleNewsBot/pkg/logx"
)

const defaultBaseURL = "https://t.me"

type Config struct {
	BaseURL string // default https://t.me
	Timeout time.Duration
}

// Client fetches and parses channel preview pages.
//
// "Connected" is modelled as the last probe/fetch outcome: transport errors
// flip the flag so the monitor can run its reconnect path, mirroring a
// session-oriented client.
type Client struct {
	base string
	http *http.Client
	log  logx.Logger

	connected atomic.Bool
}

func New(cfg Config, log logx.Logger) *Client {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Client{
		base: base,
		http: &http.Client{Timeout: timeout},
		log:  log,
	}
}

// Connect probes the preview endpoint. A transport failure here means the
// reader identity cannot come up.
func (c *Client) Connect(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/s", nil)
	if err != nil {
		return &channel.ConnError{Op: "connect", Err: err}
	}
	req.Header.Set("User-Agent", userAgent)
	resp, err := c.http.Do(req)
	if err != nil {
		c.connected.Store(false)
		return &channel.ConnError{Op: "connect", Err: err}
	}
	_ = resp.Body.Close()
	c.connected.Store(true)
	return nil
}

func (c *Client) Connected() bool { return c.connected.Load() }

func (c *Client) Disconnect() { c.connected.Store(false) }

const userAgent = "teleNewsBot/1.0"

// Resolve checks that the named channel has a public preview.
func (c *Client) Resolve(ctx context.Context, name string) (channel.Handle, error) {
	name = normalizeName(name)
	if name == "" {
		return channel.Handle{}, channel.ErrNotFound
	}

	doc, err := c.fetchDocument(ctx, c.previewURL(name, 0))
	if err != nil {
		return channel.Handle{}, err
	}

	// A resolvable channel page carries the channel info header; anything
	// else (user pages, "not found" landers) does not.
	info := doc.Find("div.tgme_channel_info_header_title")
	if info.Length() == 0 {
		return channel.Handle{}, channel.ErrNotFound
	}
	return channel.Handle{Name: name, Title: strings.TrimSpace(info.Text())}, nil
}

// History walks preview pages backwards until messages are older than since
// or limit is reached. Result is newest-first.
func (c *Client) History(ctx context.Context, h channel.Handle, since time.Time, limit int) ([]channel.Message, error) {
	if limit <= 0 {
		limit = 50
	}

	var out []channel.Message
	before := int64(0)
	for len(out) < limit {
		doc, err := c.fetchDocument(ctx, c.previewURL(h.Name, before))
		if err != nil {
			return nil, err
		}

		page := parseMessages(doc)
		if len(page) == 0 {
			break
		}

		oldest := page[0].ID
		for _, m := range page {
			if m.ID < oldest {
				oldest = m.ID
			}
			if !m.Date.Before(since) {
				out = append(out, m)
			}
		}

		// Stop paging once the page dips below the window.
		if pageOlderThan(page, since) {
			break
		}
		if before != 0 && oldest >= before {
			break
		}
		before = oldest
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func pageOlderThan(page []channel.Message, since time.Time) bool {
	for _, m := range page {
		if m.Date.Before(since) {
			return true
		}
	}
	return false
}

func (c *Client) previewURL(name string, before int64) string {
	u := c.base + "/s/" + url.PathEscape(name)
	if before > 0 {
		u += "?before=" + strconv.FormatInt(before, 10)
	}
	return u
}

func (c *Client) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		c.connected.Store(false)
		return nil, &channel.ConnError{Op: "fetch", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, channel.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		c.connected.Store(false)
		return nil, &channel.ConnError{Op: "fetch", Err: fmt.Errorf("preview returned %s", resp.Status)}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	c.connected.Store(true)
	return doc, nil
}

// parseMessages extracts posts from one preview page, page order (oldest
// first on t.me previews).
func parseMessages(doc *goquery.Document) []channel.Message {
	var out []channel.Message
	doc.Find("div.tgme_widget_message").Each(func(_ int, s *goquery.Selection) {
		post, ok := s.Attr("data-post")
		if !ok {
			return
		}
		id := messageIDFromPost(post)
		if id <= 0 {
			return
		}

		text := strings.TrimSpace(s.Find("div.tgme_widget_message_text").First().Text())

		var at time.Time
		if dt, ok := s.Find("time").First().Attr("datetime"); ok {
			if t, err := time.Parse(time.RFC3339, dt); err == nil {
				at = t
			}
		}

		out = append(out, channel.Message{ID: id, Date: at, Text: text})
	})
	return out
}

// messageIDFromPost parses the trailing id from a "channelname/1234" attr.
func messageIDFromPost(post string) int64 {
	idx := strings.LastIndexByte(post, '/')
	if idx < 0 || idx == len(post)-1 {
		return 0
	}
	id, err := strconv.ParseInt(post[idx+1:], 10, 64)
	if err != nil {
		return 0
	}
	return id
}

func normalizeName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimPrefix(name, "https://t.me/")
	name = strings.TrimPrefix(name, "t.me/")
	name = strings.TrimPrefix(name, "@")
	return strings.Trim(name, "/")
}
