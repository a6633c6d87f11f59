package sealedfield

import "context"

// Scanner fetches every row of an entity type. It is all the equality
// resolver needs from storage.
type Scanner interface {
	List(ctx context.Context, entity Entity) ([]Record, error)
}

// Store is the row storage engine: create, read, update, delete and full scan.
// Records cross this boundary with confidential fields as stored, never decrypted.
type Store interface {
	Scanner

	// Create inserts rec, assigning an id if it has none, and returns the stored row.
	Create(ctx context.Context, entity Entity, rec Record) (Record, error)

	// Get returns the row with the given id or ErrNotFound.
	Get(ctx context.Context, entity Entity, id string) (Record, error)

	// Update shallow-merges patch into the stored row (Record.Merge) and returns
	// the result, or ErrNotFound.
	Update(ctx context.Context, entity Entity, id string, patch Record) (Record, error)

	// Delete removes the row or returns ErrNotFound.
	Delete(ctx context.Context, entity Entity, id string) error
}

// IndexLookup is implemented by stores that can filter on a blind index column.
type IndexLookup interface {
	FindByIndex(ctx context.Context, entity Entity, column, index string) ([]Record, error)
}
