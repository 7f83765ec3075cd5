package store

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
)

// DisconnectAction runs against the store when the owning connection goes away.
type DisconnectAction func(ctx context.Context, s Store, path string) error

// RemoveAction deletes the registered path.
func RemoveAction(ctx context.Context, s Store, path string) error {
	return s.Delete(ctx, path)
}

// DisconnectHooks holds the cleanup actions registered by one client
// connection. The owner calls Fire when the connection closes.
type DisconnectHooks struct {
	store Store

	mu     sync.Mutex
	hooks  map[int]disconnectHook
	nextID int
	fired  bool
}

type disconnectHook struct {
	path   string
	action DisconnectAction
}

func NewDisconnectHooks(s Store) *DisconnectHooks {
	return &DisconnectHooks{store: s, hooks: make(map[int]disconnectHook)}
}

// OnDisconnect registers action for path and returns a function that cancels
// the registration.
func (d *DisconnectHooks) OnDisconnect(path string, action DisconnectAction) (cancel func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := d.nextID
	d.nextID++
	d.hooks[id] = disconnectHook{path: path, action: action}

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		delete(d.hooks, id)
	}
}

// Pending reports how many actions are registered.
func (d *DisconnectHooks) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.hooks)
}

// Fire runs every registered action once. Failures are logged, never returned:
// cleanup on disconnect is best-effort.
func (d *DisconnectHooks) Fire(ctx context.Context) {
	d.mu.Lock()
	if d.fired {
		d.mu.Unlock()
		return
	}
	d.fired = true
	hooks := make([]disconnectHook, 0, len(d.hooks))
	for _, h := range d.hooks {
		hooks = append(hooks, h)
	}
	d.hooks = make(map[int]disconnectHook)
	d.mu.Unlock()

	for _, h := range hooks {
		if err := h.action(ctx, d.store, h.path); err != nil {
			log.WithField("path", h.path).Warnf("Disconnect cleanup failed: %v", err)
		}
	}
}
