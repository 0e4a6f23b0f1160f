// Package transport holds the messaging types shared by the notifier and the
// bot adapters.
package transport

import "context"

// ChatTarget addresses a chat. ChatID is either a numeric id ("-100123")
// or a public username ("@channel").
type ChatTarget struct {
	ChatID   string
	ThreadID int // telegram forum topic thread id (0 if none)
}

type MessageRef struct {
	ChatID    string
	ThreadID  int
	MessageID int
}

type SendOptions struct {
	ParseMode      string
	DisablePreview bool
}

// Sender delivers text messages. Adapters implement it; the notifier and
// tests depend only on this.
type Sender interface {
	SendText(ctx context.Context, to ChatTarget, text string, opt *SendOptions) (MessageRef, error)
}
