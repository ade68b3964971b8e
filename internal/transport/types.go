// Package transport defines the messaging-platform boundary. The bot core
// only sees these types; the Telegram specifics live in the adapter.
package transport

import "context"

type Message struct {
	ID           int
	ChatID       int64
	FromID       int64
	FromUsername string
	Text         string
	IsGroup      bool
}

type ChatTarget struct {
	ChatID int64
}

type SendOptions struct {
	ParseMode      string
	DisablePreview bool
}

type Adapter interface {
	// Start begins receiving inbound messages into out. It returns once the
	// receive loop is running; the loop itself stops when ctx is canceled.
	Start(ctx context.Context, out chan<- Message) error
	Stop(ctx context.Context) error

	SendText(ctx context.Context, to ChatTarget, text string, opt *SendOptions) error
}
