package app

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/ustory/internal/logging"
)

type Mode string

const (
	ModeUnknown Mode = ""
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// Pinger probes whether the remote API is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Watcher tracks connectivity by pinging the API and calls OnOnline on
// every offline to online transition.
type Watcher struct {
	pinger   Pinger
	onOnline func(ctx context.Context)
	log      logging.Logger
	timeout  time.Duration

	mu   sync.Mutex
	mode Mode
}

func NewWatcher(pinger Pinger, onOnline func(ctx context.Context), log logging.Logger) *Watcher {
	return &Watcher{pinger: pinger, onOnline: onOnline, log: log, timeout: 3 * time.Second}
}

func (w *Watcher) Mode() Mode {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.mode
}

func (w *Watcher) setMode(ctx context.Context, mode Mode) (prev Mode) {
	w.mu.Lock()
	defer w.mu.Unlock()
	prev = w.mode
	if prev != mode {
		w.mode = mode
		w.log.Info(ctx, "connectivity changed", "mode", string(mode))
	}
	return prev
}

// Check pings once and updates the mode. Coming back online from a known
// offline state triggers OnOnline before Check returns.
func (w *Watcher) Check(ctx context.Context) Mode {
	pctx, cancel := context.WithTimeout(ctx, w.timeout)
	err := w.pinger.Ping(pctx)
	cancel()

	if err != nil {
		w.setMode(ctx, ModeOffline)
		return ModeOffline
	}
	if prev := w.setMode(ctx, ModeOnline); prev == ModeOffline && w.onOnline != nil {
		w.onOnline(ctx)
	}
	return ModeOnline
}

// Run checks connectivity every interval until ctx is done.
func (w *Watcher) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.Check(ctx)
		case <-ctx.Done():
			return
		}
	}
}
