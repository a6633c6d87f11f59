// Package memstore is an in-process sealedfield.Store. Rows are kept in
// insertion order, which is also the order List and FindByIndex return.
package memstore

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/ai8future/sealedfield"
)

// Store is safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	rows  map[sealedfield.Entity]map[string]sealedfield.Record
	order map[sealedfield.Entity][]string
}

var (
	_ sealedfield.Store       = (*Store)(nil)
	_ sealedfield.IndexLookup = (*Store)(nil)
)

func New() *Store {
	return &Store{
		rows:  make(map[sealedfield.Entity]map[string]sealedfield.Record),
		order: make(map[sealedfield.Entity][]string),
	}
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
		row[sealedfield.IDKey] = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	table, ok := s.rows[entity]
	if !ok {
		table = make(map[string]sealedfield.Record)
		s.rows[entity] = table
	}
	if _, exists := table[row.ID()]; exists {
		return nil, sealedfield.ErrDuplicateID
	}

	table[row.ID()] = row
	s.order[entity] = append(s.order[entity], row.ID())

	return row.Clone(), nil
}

func (s *Store) Get(ctx context.Context, entity sealedfield.Entity, id string) (sealedfield.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.rows[entity][id]
	if !ok {
		return nil, sealedfield.ErrNotFound
	}
	return row.Clone(), nil
}

func (s *Store) Update(ctx context.Context, entity sealedfield.Entity, id string, patch sealedfield.Record) (sealedfield.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[entity][id]
	if !ok {
		return nil, sealedfield.ErrNotFound
	}

	merged := row.Merge(patch)
	merged[sealedfield.IDKey] = id
	s.rows[entity][id] = merged

	return merged.Clone(), nil
}

func (s *Store) Delete(ctx context.Context, entity sealedfield.Entity, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rows[entity][id]; !ok {
		return sealedfield.ErrNotFound
	}
	delete(s.rows[entity], id)
	s.order[entity] = slices.DeleteFunc(s.order[entity], func(v string) bool { return v == id })

	return nil
}

// List returns copies of every row of entity. It holds the read lock only for
// the copy, so a concurrent Create lands either before or after the snapshot.
func (s *Store) List(ctx context.Context, entity sealedfield.Entity) ([]sealedfield.Record, error) {
	return s.collect(ctx, entity, func(sealedfield.Record) bool { return true })
}

// FindByIndex returns the rows whose column equals index.
func (s *Store) FindByIndex(ctx context.Context, entity sealedfield.Entity, column, index string) ([]sealedfield.Record, error) {
	return s.collect(ctx, entity, func(r sealedfield.Record) bool {
		v, ok := r.String(column)
		return ok && v == index
	})
}

func (s *Store) collect(ctx context.Context, entity sealedfield.Entity, keep func(sealedfield.Record) bool) ([]sealedfield.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]sealedfield.Record, 0, len(s.order[entity]))
	for _, id := range s.order[entity] {
		row := s.rows[entity][id]
		if keep(row) {
			out = append(out, row.Clone())
		}
	}
	return out, nil
}

// Len returns the number of rows of entity.
func (s *Store) Len(entity sealedfield.Entity) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows[entity])
}
