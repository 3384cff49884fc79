// Package cache is the snapshot store behind the query layer. Values are
// opaque JSON blobs; keys identify either a single entity or a user's
// collection for one role. Entries have no TTL: a snapshot is valid until a
// newer one replaces it or a mutation invalidates it, and a stale snapshot
// is still the best available answer while a refresh is in flight.
package cache

import (
	"context"
	"strconv"

	"github.com/sam-thetutor/streamr/types"
)

type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// EntityKey addresses one stream or subscription snapshot.
func EntityKey(kind types.EntityKind, id uint64) string {
	return string(kind) + ":" + strconv.FormatUint(id, 10)
}

// ListKey addresses a user's collection for one role.
func ListKey(kind types.EntityKind, address string, role types.Role) string {
	return string(kind) + "s:" + string(role) + ":" + address
}
