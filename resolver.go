package sealedfield

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ai8future/sealedfield/internal/logging"
)

// Resolver finds records by the plaintext value of a confidential field.
//
// Ciphertexts are non-deterministic, so storage cannot filter on them: every
// lookup fetches all rows of the entity and decrypts the field of each
// candidate until one matches. Cost is O(n) in the entity's row count, paid by
// every concurrent caller; nothing is cached. Stores that implement
// IndexLookup can short-circuit this with WithIndexLookup.
type Resolver struct {
	mapper      *Mapper
	scanner     Scanner
	timeout     time.Duration
	indexLookup bool
	logger      logging.Logger
}

// NewResolver creates a Resolver that scans through scanner.
func NewResolver(mapper *Mapper, scanner Scanner, opts ...ResolverOption) (*Resolver, error) {
	if scanner == nil {
		return nil, ErrNilStore
	}

	r := &Resolver{
		mapper:  mapper,
		scanner: scanner,
		timeout: defaultScanTimeout,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

// FindByConfidentialField returns the first record of entity whose field
// decrypts to exactly value, with its confidential fields decrypted.
//
// A miss returns ErrNotFound. A storage failure, including the scan timeout,
// returns a wrapped error that is not ErrNotFound. When several rows hold the
// same plaintext, the first in the store's fetch order wins; that order is
// whatever the store returns and is not otherwise defined. Rows inserted during
// a scan may or may not be seen.
func (r *Resolver) FindByConfidentialField(ctx context.Context, entity Entity, field, value string) (Record, error) {
	f, ok := r.mapper.registry.Lookup(entity, field)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrNotConfidential, entity, field)
	}

	// Empty values are never encrypted, so they cannot identify anyone.
	if value == "" {
		return nil, ErrNotFound
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	if r.indexLookup && f.Indexed() {
		if il, ok := r.scanner.(IndexLookup); ok {
			rec, err := r.findIndexed(ctx, il, entity, f, value)
			if err != nil {
				return nil, err
			}
			if rec != nil {
				return rec, nil
			}
		}
	}

	return r.scan(ctx, entity, field, value)
}

// Exists reports whether any record of entity has field equal to value.
func (r *Resolver) Exists(ctx context.Context, entity Entity, field, value string) (bool, error) {
	_, err := r.FindByConfidentialField(ctx, entity, field, value)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// scan is the linear fallback that works on every row, indexed or legacy.
func (r *Resolver) scan(ctx context.Context, entity Entity, field, value string) (Record, error) {
	rows, err := r.scanner.List(ctx, entity)
	if err != nil {
		return nil, fmt.Errorf("lookup %s.%s: %w", entity, field, err)
	}

	rec, n, err := r.firstMatch(ctx, entity, field, value, rows)
	r.logger.Debug(ctx, "confidential scan", "entity", entity, "field", field, "rows", len(rows), "scanned", n, "hit", rec != nil)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrNotFound
	}
	return rec, nil
}

// findIndexed verifies blind index candidates. A nil record with a nil error
// means the caller should fall back to the scan.
func (r *Resolver) findIndexed(ctx context.Context, il IndexLookup, entity Entity, f Field, value string) (Record, error) {
	idx := r.mapper.codec.BlindIndex(entity, f.Name, value, f.Index)

	rows, err := il.FindByIndex(ctx, entity, IndexColumn(f.Name), idx)
	if err != nil {
		return nil, fmt.Errorf("lookup %s.%s by index: %w", entity, f.Name, err)
	}

	rec, _, err := r.firstMatch(ctx, entity, f.Name, value, rows)
	return rec, err
}

// firstMatch decrypts field of each row in order and stops at the first exact
// match. It returns the decrypted record and how many rows were examined.
func (r *Resolver) firstMatch(ctx context.Context, entity Entity, field, value string, rows []Record) (Record, int, error) {
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, i, fmt.Errorf("lookup %s.%s: %w", entity, field, err)
		}

		stored, ok := row.String(field)
		if !ok {
			continue
		}
		if r.mapper.codec.Decrypt(stored) == value {
			return r.mapper.DecryptFields(entity, row), i + 1, nil
		}
	}
	return nil, len(rows), nil
}
