package app

import "sync"

// Registry keys for process-wide one-time initialisation.
const (
	KeyCacheWorker     = "cache-worker"
	KeyMessageListener = "message-listener"
	KeyWatcher         = "connectivity-watcher"
)

// Registry remembers which initialisers have completed.
type Registry struct {
	mu   sync.Mutex
	done map[string]bool
}

func NewRegistry() *Registry {
	return &Registry{done: map[string]bool{}}
}

// InitOnce runs fn unless an earlier call with the same key succeeded. It
// reports whether fn ran. A failed fn does not mark the key, so a later
// call retries it. Calls for the same registry are serialized.
func (r *Registry) InitOnce(key string, fn func() error) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done[key] {
		return false, nil
	}
	if err := fn(); err != nil {
		return true, err
	}
	r.done[key] = true
	return true, nil
}

// Done reports whether key has been initialised.
func (r *Registry) Done(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done[key]
}
