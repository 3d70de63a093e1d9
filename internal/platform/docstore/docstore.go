// Package docstore is the document-per-entity persistence the engine keeps its
// live state in: point reads and writes keyed by (user, kind, id) plus a
// subscription that fires whenever a watched document changes.
package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	apperrors "studypact/internal/platform/errors"
)

type Key struct {
	UserID string
	Kind   string
	ID     string
}

func (k Key) Validate() error {
	for _, part := range []string{k.UserID, k.Kind, k.ID} {
		if strings.TrimSpace(part) == "" || strings.ContainsAny(part, `/\:`) {
			return fmt.Errorf("%w: document key %q", apperrors.ErrInvalidInput, k.String())
		}
	}
	return nil
}

func (k Key) String() string {
	return k.UserID + ":" + k.Kind + ":" + k.ID
}

// Change is delivered to watchers. Data is nil when the document was deleted.
type Change struct {
	Key     Key
	Data    []byte
	Deleted bool
	At      time.Time
}

// Decode unmarshals the changed document into v.
func (c Change) Decode(v any) error {
	if c.Deleted {
		return apperrors.ErrNotFound
	}
	if err := json.Unmarshal(c.Data, v); err != nil {
		return fmt.Errorf("decode %s: %w", c.Key.Kind, err)
	}
	return nil
}

type Store interface {
	// Get returns apperrors.ErrNotFound when the document does not exist.
	Get(ctx context.Context, key Key, v any) error
	Put(ctx context.Context, key Key, v any) error
	Delete(ctx context.Context, key Key) error
	// Watch invokes fn for every change to key until stop is called or ctx ends.
	Watch(ctx context.Context, key Key, fn func(Change)) (stop func(), err error)
}
