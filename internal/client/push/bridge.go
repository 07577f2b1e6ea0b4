package push

import (
	"context"
	"fmt"
	"net/url"

	"github.com/dmitrijs2005/ustory/internal/logging"
)

// Message types posted to app windows.
const (
	MsgPushClick          = "PUSH_CLICK"
	MsgSubscriptionChange = "PUSH_SUBSCRIPTION_CHANGE"
)

type Message struct {
	Type string `json:"type"`
	URL  string `json:"url,omitempty"`
}

// Notifier displays a notification to the user.
type Notifier interface {
	Show(ctx context.Context, n Notification) error
}

// Window is an open app window.
type Window interface {
	URL() string
	Focus(ctx context.Context) error
	PostMessage(ctx context.Context, m Message) error
}

// Clients enumerates and opens app windows.
type Clients interface {
	Windows(ctx context.Context) ([]Window, error)
	Open(ctx context.Context, absURL string) (Window, error)
}

type Bridge struct {
	origin   *url.URL
	notifier Notifier
	clients  Clients
	log      logging.Logger
}

func NewBridge(appOrigin string, notifier Notifier, clients Clients, log logging.Logger) (*Bridge, error) {
	origin, err := url.Parse(appOrigin)
	if err != nil {
		return nil, fmt.Errorf("parse app origin: %w", err)
	}
	return &Bridge{origin: origin, notifier: notifier, clients: clients, log: log}, nil
}

// HandlePush shows the notification for a raw push payload.
func (b *Bridge) HandlePush(ctx context.Context, payload []byte) error {
	n := Normalize(payload)
	if err := b.notifier.Show(ctx, n); err != nil {
		return fmt.Errorf("show notification: %w", err)
	}
	return nil
}

// HandleClick focuses a window already showing the notification's URL, or
// opens one, and posts a PUSH_CLICK message to it.
func (b *Bridge) HandleClick(ctx context.Context, n Notification) error {
	path := n.URL()
	abs, err := b.origin.Parse(path)
	if err != nil {
		return fmt.Errorf("resolve %q: %w", path, err)
	}
	msg := Message{Type: MsgPushClick, URL: path}

	windows, err := b.clients.Windows(ctx)
	if err != nil {
		return err
	}
	for _, w := range windows {
		if w.URL() != abs.String() {
			continue
		}
		if err := w.Focus(ctx); err != nil {
			b.log.Warn(ctx, "focus window failed", "url", abs.String(), "error", err)
		}
		return w.PostMessage(ctx, msg)
	}

	w, err := b.clients.Open(ctx, abs.String())
	if err != nil {
		return fmt.Errorf("open window: %w", err)
	}
	if w != nil {
		if err := w.PostMessage(ctx, msg); err != nil {
			b.log.Debug(ctx, "post to new window failed", "url", abs.String(), "error", err)
		}
	}
	return nil
}

// HandleSubscriptionChange asks every window to re-subscribe.
func (b *Bridge) HandleSubscriptionChange(ctx context.Context) error {
	windows, err := b.clients.Windows(ctx)
	if err != nil {
		return err
	}
	for _, w := range windows {
		if err := w.PostMessage(ctx, Message{Type: MsgSubscriptionChange}); err != nil {
			b.log.Warn(ctx, "notify window failed", "url", w.URL(), "error", err)
		}
	}
	return nil
}
