// Package badgerstore is an embedded sealedfield.Store on Badger.
//
// Rows are JSON documents under rec/<entity>/<id>. Generated ids are UUIDv7,
// so key order, and therefore List order, follows creation time.
package badgerstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/ai8future/sealedfield"
)

// maxConflictRetries bounds retries of a read-modify-write that lost a race.
const maxConflictRetries = 3

type Store struct {
	db *badger.DB
}

var _ sealedfield.Store = (*Store)(nil)

// Open opens a Badger database at path. An empty path opens an in-memory database.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("error opening badger at %q: %w", path, err)
	}
	return New(db), nil
}

// New wraps an already open database.
func New(db *badger.DB) *Store {
	return &Store{db: db}
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func prefix(entity sealedfield.Entity) []byte {
	return []byte("rec/" + string(entity) + "/")
}

func key(entity sealedfield.Entity, id string) []byte {
	return append(prefix(entity), id...)
}

func (s *Store) Create(ctx context.Context, entity sealedfield.Entity, rec sealedfield.Record) (sealedfield.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	row := rec.Clone()
	if row == nil {
		row = sealedfield.Record{}
	}
	if row.ID() == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("generate id: %w", err)
		}
		row[sealedfield.IDKey] = id.String()
	}

	data, err := json.Marshal(row)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		k := key(entity, row.ID())
		if _, err := txn.Get(k); err == nil {
			return sealedfield.ErrDuplicateID
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(k, data)
	})
	if err != nil {
		return nil, err
	}

	return row, nil
}

func (s *Store) Get(ctx context.Context, entity sealedfield.Entity, id string) (sealedfield.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rec sealedfield.Record
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		rec, err = get(txn, key(entity, id))
		return err
	})
	return rec, err
}

func (s *Store) Update(ctx context.Context, entity sealedfield.Entity, id string, patch sealedfield.Record) (sealedfield.Record, error) {
	var merged sealedfield.Record

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		err := s.db.Update(func(txn *badger.Txn) error {
			k := key(entity, id)
			row, err := get(txn, k)
			if err != nil {
				return err
			}

			merged = row.Merge(patch)
			merged[sealedfield.IDKey] = id

			data, err := json.Marshal(merged)
			if err != nil {
				return fmt.Errorf("encode record: %w", err)
			}
			return txn.Set(k, data)
		})
		if errors.Is(err, badger.ErrConflict) && attempt < maxConflictRetries {
			continue
		}
		if err != nil {
			return nil, err
		}
		return merged, nil
	}
}

func (s *Store) Delete(ctx context.Context, entity sealedfield.Entity, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		k := key(entity, id)
		if _, err := txn.Get(k); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return sealedfield.ErrNotFound
			}
			return err
		}
		return txn.Delete(k)
	})
}

// List iterates the entity's key range inside one read transaction, so it
// sees a consistent snapshot.
func (s *Store) List(ctx context.Context, entity sealedfield.Entity) ([]sealedfield.Record, error) {
	var out []sealedfield.Record

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		p := prefix(entity)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			err := it.Item().Value(func(v []byte) error {
				rec, err := decode(v)
				if err != nil {
					return err
				}
				out = append(out, rec)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

func get(txn *badger.Txn, k []byte) (sealedfield.Record, error) {
	item, err := txn.Get(k)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, sealedfield.ErrNotFound
		}
		return nil, err
	}

	data, err := item.ValueCopy(nil)
	if err != nil {
		return nil, err
	}
	return decode(data)
}

func decode(data []byte) (sealedfield.Record, error) {
	var rec sealedfield.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return rec, nil
}
