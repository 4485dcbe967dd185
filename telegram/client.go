package telegram

import (
	"context"
	"fmt"

	"github.com/gotd/contrib/bg"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/telegram/message"
	"github.com/gotd/td/tg"
	"go.uber.org/zap"

	"github.com/honganh1206/tgterm/termio"
)

const fallbackSelfName = "You"

// Config carries everything the adapter needs to build a session.
type Config struct {
	APIID       int
	APIHash     string
	SessionName string
	// SessionPath is the buntdb file holding session blobs, one key per
	// SessionName.
	SessionPath string
	IO          termio.IO
	Logger      *zap.Logger
}

// Client adapts gotd into the Service interface, converting its wire
// objects into the two display records.
type Client struct {
	cfg Config

	client   *telegram.Client
	api      *tg.Client
	sender   *message.Sender
	stop     bg.StopFunc
	store    *sessionStore
	selfName string
}

var _ Service = (*Client)(nil)

func NewClient(cfg Config) *Client {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Client{cfg: cfg, selfName: fallbackSelfName}
}

// Connect dials Telegram and, when the stored session is not authorized,
// walks the interactive login flow (phone, code, optional 2FA password).
// A second call on a connected client is a no-op.
func (c *Client) Connect(ctx context.Context) error {
	if c.cfg.APIID == 0 || c.cfg.APIHash == "" {
		return fmt.Errorf("telegram API credentials are not configured: set --api-id and --api-hash or the TELEGRAM_API_ID/TELEGRAM_API_HASH environment variables")
	}
	if c.client != nil {
		return nil
	}

	store, err := openSessionStore(c.cfg.SessionPath, c.cfg.SessionName)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}

	client := telegram.NewClient(c.cfg.APIID, c.cfg.APIHash, telegram.Options{
		SessionStorage: store,
		Logger:         c.cfg.Logger,
	})

	stop, err := bg.Connect(client)
	if err != nil {
		store.Close()
		return fmt.Errorf("connect: %w", err)
	}

	flow := auth.NewFlow(termAuth{io: c.cfg.IO}, auth.SendCodeOptions{})
	if err := client.Auth().IfNecessary(ctx, flow); err != nil {
		stop()
		store.Close()
		return fmt.Errorf("login: %w", err)
	}

	c.client = client
	c.api = client.API()
	c.sender = message.NewSender(c.api)
	c.stop = stop
	c.store = store

	if self, err := client.Self(ctx); err == nil && self != nil {
		c.selfName = selfDisplayName(self)
	}
	return nil
}

// Disconnect stops the background client. Safe when already disconnected.
func (c *Client) Disconnect(ctx context.Context) error {
	if c.client == nil {
		return nil
	}
	err := c.stop()
	c.store.Close()
	c.client = nil
	c.api = nil
	c.sender = nil
	c.stop = nil
	c.store = nil
	if err != nil {
		return fmt.Errorf("disconnect: %w", err)
	}
	return nil
}

func (c *Client) FetchDialogs(ctx context.Context, limit int) ([]Dialog, error) {
	if c.api == nil {
		return nil, ErrNotConnected
	}
	res, err := c.api.MessagesGetDialogs(ctx, &tg.MessagesGetDialogsRequest{
		OffsetPeer: &tg.InputPeerEmpty{},
		Limit:      limit,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch dialogs: %w", err)
	}

	switch d := res.(type) {
	case *tg.MessagesDialogs:
		return mapDialogs(d.Dialogs, d.Users, d.Chats), nil
	case *tg.MessagesDialogsSlice:
		return mapDialogs(d.Dialogs, d.Users, d.Chats), nil
	default:
		return nil, nil
	}
}

func (c *Client) FetchMessages(ctx context.Context, dialog Dialog, limit int) ([]Message, error) {
	if c.api == nil {
		return nil, ErrNotConnected
	}
	res, err := c.api.MessagesGetHistory(ctx, &tg.MessagesGetHistoryRequest{
		Peer:  dialog.Peer,
		Limit: limit,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch messages: %w", err)
	}

	var (
		raw   []tg.MessageClass
		users []tg.UserClass
	)
	switch m := res.(type) {
	case *tg.MessagesMessages:
		raw, users = m.Messages, m.Users
	case *tg.MessagesMessagesSlice:
		raw, users = m.Messages, m.Users
	case *tg.MessagesChannelMessages:
		raw, users = m.Messages, m.Users
	default:
		return nil, nil
	}
	return mapMessages(raw, users, dialog, c.selfName), nil
}

func (c *Client) SendMessage(ctx context.Context, dialog Dialog, text string) error {
	if c.sender == nil {
		return ErrNotConnected
	}
	if _, err := c.sender.To(dialog.Peer).Text(ctx, text); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}
