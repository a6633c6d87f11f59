package sealedfield

import (
	"context"
	"fmt"
)

// Repository is the confidential-field layer over a Store. Writes are
// encrypted before they reach the store and every read is decrypted before it
// leaves, so callers only ever see plaintext.
type Repository struct {
	store    Store
	mapper   *Mapper
	resolver *Resolver
}

// NewRepository wires a mapper and an equality resolver to store.
func NewRepository(store Store, mapper *Mapper, opts ...ResolverOption) (*Repository, error) {
	if store == nil {
		return nil, ErrNilStore
	}

	resolver, err := NewResolver(mapper, store, opts...)
	if err != nil {
		return nil, err
	}

	return &Repository{store: store, mapper: mapper, resolver: resolver}, nil
}

// Mapper returns the field mapper, for call sites that decrypt embedded records.
func (r *Repository) Mapper() *Mapper {
	return r.mapper
}

// Resolver returns the equality resolver.
func (r *Repository) Resolver() *Resolver {
	return r.resolver
}

// Create encrypts the confidential fields of rec and stores it.
func (r *Repository) Create(ctx context.Context, entity Entity, rec Record) (Record, error) {
	stored, err := r.store.Create(ctx, entity, r.mapper.EncryptFields(entity, rec))
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", entity, err)
	}
	return r.mapper.DecryptFields(entity, stored), nil
}

// Get returns one decrypted record.
func (r *Repository) Get(ctx context.Context, entity Entity, id string) (Record, error) {
	stored, err := r.store.Get(ctx, entity, id)
	if err != nil {
		return nil, fmt.Errorf("get %s %s: %w", entity, id, err)
	}
	return r.mapper.DecryptFields(entity, stored), nil
}

// Update re-encrypts only the confidential fields present in patch; the store
// merge keeps every other stored ciphertext as it was.
func (r *Repository) Update(ctx context.Context, entity Entity, id string, patch Record) (Record, error) {
	stored, err := r.store.Update(ctx, entity, id, r.mapper.EncryptFields(entity, patch))
	if err != nil {
		return nil, fmt.Errorf("update %s %s: %w", entity, id, err)
	}
	return r.mapper.DecryptFields(entity, stored), nil
}

// Delete removes a record.
func (r *Repository) Delete(ctx context.Context, entity Entity, id string) error {
	if err := r.store.Delete(ctx, entity, id); err != nil {
		return fmt.Errorf("delete %s %s: %w", entity, id, err)
	}
	return nil
}

// List returns every record of entity, decrypted, in store order.
func (r *Repository) List(ctx context.Context, entity Entity) ([]Record, error) {
	rows, err := r.store.List(ctx, entity)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", entity, err)
	}
	return r.mapper.DecryptMany(entity, rows), nil
}

// FindBy looks a record up by the plaintext of a confidential field.
// See Resolver.FindByConfidentialField.
func (r *Repository) FindBy(ctx context.Context, entity Entity, field, value string) (Record, error) {
	return r.resolver.FindByConfidentialField(ctx, entity, field, value)
}

// Exists reports whether a record with the given confidential value exists.
func (r *Repository) Exists(ctx context.Context, entity Entity, field, value string) (bool, error) {
	return r.resolver.Exists(ctx, entity, field, value)
}
