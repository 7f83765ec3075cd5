// Package store defines the remote document store contract used for live game
// records. Values are addressed by slash-separated paths (games/{pin}/players/{id})
// and subscribers always receive whole snapshots of the subscribed path, never
// field-level diffs.
package store

import (
	"context"
	"encoding/json"
	"errors"
)

var ErrInvalidPath = errors.New("invalid store path")

// Snapshot is the full value at a subscribed path. Exists is false once the
// value has been deleted.
type Snapshot struct {
	Path   string
	Exists bool
	Data   json.RawMessage
}

type Handler func(Snapshot)

type Subscription interface {
	Unsubscribe()
}

// Store is last-write-wins per field with no cross-call transactions, except
// that a single UpdateFields or WriteIfAbsent call applies atomically.
type Store interface {
	Write(ctx context.Context, path string, value any) error
	Read(ctx context.Context, path string) (json.RawMessage, bool, error)
	UpdateFields(ctx context.Context, fields map[string]any) error
	// WriteIfAbsent writes value only when nothing exists at path and reports
	// whether it did.
	WriteIfAbsent(ctx context.Context, path string, value any) (bool, error)
	Delete(ctx context.Context, path string) error
	// Subscribe delivers the current value immediately and then every change,
	// in commit order, until the subscription is cancelled.
	Subscribe(ctx context.Context, path string, handler Handler) (Subscription, error)
}

// Unsubscribe cancels sub. It is safe to call with a nil subscription.
func Unsubscribe(sub Subscription) {
	if sub != nil {
		sub.Unsubscribe()
	}
}
