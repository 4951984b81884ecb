// Package storage is the client-local durable store: one opaque value per
// (user, key), replaced in full on every write. The bot keeps the cart and
// the anonymous identity token here.
package storage

import "context"

// Logical keys. Same names the web client used in localStorage.
const (
	KeyCart = "cart"
	KeyUser = "user"
)

// Store is a per-user key/value capability. Get reports ok=false when the
// key has never been written. Set replaces the whole value; there is no
// concurrent-writer reconciliation (last write wins).
type Store interface {
	Get(ctx context.Context, userID int64, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, userID int64, key string, value []byte) error
	Remove(ctx context.Context, userID int64, key string) error
}
