package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/dmitrijs2005/ustory/internal/logging"
)

var ErrNoWindow = errors.New("no window can be opened")

// LogNotifier shows notifications by logging them.
type LogNotifier struct {
	Log logging.Logger
}

func (l LogNotifier) Show(ctx context.Context, n Notification) error {
	l.Log.Info(ctx, "notification", "title", n.Title, "body", n.Options.Body, "url", n.URL(), "tag", n.Options.Tag)
	return nil
}

// Hub tracks windows connected to the app shell's event stream and
// implements Clients for them. It cannot open new windows.
type Hub struct {
	mu      sync.Mutex
	windows map[*streamWindow]struct{}
}

func NewHub() *Hub {
	return &Hub{windows: map[*streamWindow]struct{}{}}
}

type streamWindow struct {
	url string
	mu  sync.Mutex
	w   io.Writer
	// flush is called after every message; may be nil.
	flush  func()
	closed bool
}

func (w *streamWindow) URL() string { return w.url }

func (w *streamWindow) Focus(context.Context) error { return nil }

// PostMessage writes m as one server-sent event.
func (w *streamWindow) PostMessage(_ context.Context, m Message) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return fmt.Errorf("%w: window %s is gone", ErrNoWindow, w.url)
	}
	if _, err := fmt.Fprintf(w.w, "event: message\ndata: %s\n\n", data); err != nil {
		return err
	}
	if w.flush != nil {
		w.flush()
	}
	return nil
}

// Attach registers a window showing absURL whose messages go to w. The
// returned func detaches it; w is not written to after it returns.
func (h *Hub) Attach(absURL string, w io.Writer, flush func()) (Window, func()) {
	win := &streamWindow{url: absURL, w: w, flush: flush}
	h.mu.Lock()
	h.windows[win] = struct{}{}
	h.mu.Unlock()
	return win, func() {
		h.mu.Lock()
		delete(h.windows, win)
		h.mu.Unlock()
		win.mu.Lock()
		win.closed = true
		win.mu.Unlock()
	}
}

func (h *Hub) Windows(context.Context) ([]Window, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Window, 0, len(h.windows))
	for w := range h.windows {
		out = append(out, w)
	}
	return out, nil
}

func (h *Hub) Open(_ context.Context, absURL string) (Window, error) {
	return nil, fmt.Errorf("%w: %s", ErrNoWindow, absURL)
}
