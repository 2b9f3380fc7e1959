// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/.
package ports

import (
	"context"

	"github.com/artpar/crudgate/domain/query"
	"github.com/artpar/crudgate/domain/resource"
)

// Backend is the storage-specific implementation of the core CRUD
// operations for one resource. Every implementation satisfies the same
// contract from the caller's point of view:
//
//   - All errors crossing the boundary are classified *storage.Error values.
//     A raw storage-layer error escaping an adapter is a bug.
//   - List orders by primary key ascending and applies the offset/limit
//     window after filtering. An empty result after filtering is not-found,
//     not an empty success.
//   - Create honors a caller-supplied primary key and assigns one when it is
//     missing. The returned record reflects storage-assigned defaults.
//   - Update checks existence before mutating anything, applies only the
//     fields present in the payload, and never moves the primary key.
//   - DeleteAll is idempotent: deleting an already-empty collection succeeds.
//
// Cancellation is propagated transparently through ctx into the underlying
// storage call; the core adds no retries and no timeouts of its own.
type Backend interface {
	// List returns the filtered, primary-key-ordered, windowed records.
	List(ctx context.Context, filters query.Filters, page query.Page) ([]resource.Record, error)

	// Get retrieves one record by primary key.
	Get(ctx context.Context, id any) (resource.Record, error)

	// Create stores a new record and returns it as persisted.
	Create(ctx context.Context, payload resource.Record) (resource.Record, error)

	// Update applies a partial payload to an existing record and returns
	// the result.
	Update(ctx context.Context, id any, payload resource.Record) (resource.Record, error)

	// DeleteOne removes one record by primary key.
	DeleteOne(ctx context.Context, id any) error

	// DeleteAll removes every record of the resource.
	DeleteAll(ctx context.Context) error
}

// IDGenerator generates unique identifiers for string primary keys the
// caller did not supply.
type IDGenerator interface {
	New() string
}

// Hasher hashes and verifies access tokens.
type Hasher interface {
	// Hash generates a hash from plaintext.
	Hash(plaintext string) ([]byte, error)
	// Compare checks if plaintext matches hash.
	Compare(hash []byte, plaintext string) bool
}
