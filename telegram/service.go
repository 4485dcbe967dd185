package telegram

import (
	"context"
	"errors"
)

// ErrNotConnected is returned by adapter calls made before a successful
// Connect.
var ErrNotConnected = errors.New("not connected to Telegram")

// Service is what the REPL and the interactive UI program against. The
// real implementation wraps gotd; tests substitute fakes.
type Service interface {
	// Connect establishes the session, performing interactive login when
	// the session is not yet authorized. Idempotent.
	Connect(ctx context.Context) error
	// Disconnect tears the session down. Safe to call when already
	// disconnected.
	Disconnect(ctx context.Context) error
	// FetchDialogs returns up to limit dialogs in the service's default
	// ordering.
	FetchDialogs(ctx context.Context, limit int) ([]Dialog, error)
	// FetchMessages returns up to limit messages in chronological order,
	// oldest first.
	FetchMessages(ctx context.Context, dialog Dialog, limit int) ([]Message, error)
	// SendMessage transmits text to the dialog. Callers refetch history to
	// observe the sent message.
	SendMessage(ctx context.Context, dialog Dialog, text string) error
}
