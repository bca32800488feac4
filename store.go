package edgesession

import (
	"context"
	"time"
)

// Store is the key-value capability sessions are persisted in.
//
// Get reports absence with ok=false and a nil error. A ttl <= 0 passed to
// Set means the entry does not expire. DelAll removes every key starting
// with prefix; backends may loop internally, but callers must not observe a
// successful return while matching keys remain.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	DelAll(ctx context.Context, prefix string) error
}

// Taker is implemented by stores that can read and delete a key in one
// atomic step. The engine uses it to consume flash entries; without it a
// flash read is a Get followed by a Del, and two concurrent readers may both
// see the value.
type Taker interface {
	Take(ctx context.Context, key string) (value string, ok bool, err error)
}

type keyKind string

const (
	kindData  keyKind = "data"
	kindFlash keyKind = "flash"
)

// storeKey builds "kind:sessionID:label".
func storeKey(kind keyKind, sessionID, label string) string {
	return keyPrefix(kind, sessionID) + label
}

// keyPrefix builds "kind:sessionID:", the prefix shared by every key of one
// kind in a session.
func keyPrefix(kind keyKind, sessionID string) string {
	return string(kind) + ":" + sessionID + ":"
}
