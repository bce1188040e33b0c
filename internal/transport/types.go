package transport

import "context"

// Message is an inbound private message from a recipient (command traffic).
type Message struct {
	ID        int
	ChatID    int64
	FromID    int64
	Username  string
	FirstName string
	Text      string
}

// Update wraps one inbound event from the responder identity.
type Update struct {
	Message *Message
}

// ChatTarget addresses an outbound send.
type ChatTarget struct {
	ChatID int64
}

type MessageRef struct {
	ChatID    int64
	MessageID int
}

// Parse modes understood by the Telegram adapter.
const (
	ParseModeMarkdown = "Markdown"
	ParseModeHTML     = "HTML"
)

type SendOptions struct {
	ParseMode      string
	DisablePreview bool
}

// Adapter is the responder identity: it receives recipient commands and
// delivers outbound messages. Implementations must be safe for concurrent
// SendText callers.
type Adapter interface {
	Start(ctx context.Context, out chan<- Update) error
	Stop(ctx context.Context) error

	SendText(ctx context.Context, to ChatTarget, text string, opt *SendOptions) (MessageRef, error)
}
