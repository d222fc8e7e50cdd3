// sessionstore/store.go
/* Package sessionstore holds the session credential. A Store is scoped to exactly one session: it
is the Go analogue of a browser tab's sessionStorage, so two sessions never see each other's values. */
package sessionstore

import (
	"context"
	"errors"
)

// TokenKey is the key the session credential is stored under.
const TokenKey = "token"

// ErrNotFound is returned by Get when the key holds no value.
var ErrNotFound = errors.New("sessionstore: key not found")

// Store is session-scoped key/value storage.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
