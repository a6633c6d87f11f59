package sealedfield

import (
	"context"
	"fmt"
)

// NeedsEncryption reports whether a stored value is legacy plaintext that
// should be encrypted: a non-empty string not in the ciphertext shape.
func NeedsEncryption(v any) bool {
	s, ok := v.(string)
	return ok && s != "" && !IsCiphertext(s)
}

// LegacyPatch returns the update that brings a stored record up to date:
// legacy plaintext confidential fields encrypted and, with WithBlindIndex,
// missing blind indexes filled in. An empty patch means nothing to do.
func (m *Mapper) LegacyPatch(entity Entity, stored Record) Record {
	plain := Record{}
	indexes := Record{}

	for _, f := range m.registry.Fields(entity) {
		v, present := stored[f.Name]
		if !present {
			continue
		}
		if NeedsEncryption(v) {
			plain[f.Name] = v
			continue
		}

		if !m.blindIndex || !f.Indexed() {
			continue
		}
		if _, has := stored[IndexColumn(f.Name)]; has {
			continue
		}
		s, _ := v.(string)
		if plaintext, err := m.codec.Open(s); err == nil && plaintext != "" {
			indexes[IndexColumn(f.Name)] = m.codec.BlindIndex(entity, f.Name, plaintext, f.Index)
		}
	}

	return m.EncryptFields(entity, plain).Merge(indexes)
}

// MigrationReport summarizes one MigrateEntity run.
type MigrationReport struct {
	Entity   Entity
	Scanned  int
	Migrated int
}

// MigrateEntity re-encrypts legacy plaintext rows of entity in place. With
// dryRun it only counts. Rows are updated one at a time; a failure stops the
// run and the report reflects the rows done so far. Running it again is safe.
func MigrateEntity(ctx context.Context, store Store, mapper *Mapper, entity Entity, dryRun bool) (MigrationReport, error) {
	report := MigrationReport{Entity: entity}

	rows, err := store.List(ctx, entity)
	if err != nil {
		return report, fmt.Errorf("migrate %s: %w", entity, err)
	}

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("migrate %s: %w", entity, err)
		}
		report.Scanned++

		patch := mapper.LegacyPatch(entity, row)
		if len(patch) == 0 {
			continue
		}

		if !dryRun {
			if _, err := store.Update(ctx, entity, row.ID(), patch); err != nil {
				return report, fmt.Errorf("migrate %s %s: %w", entity, row.ID(), err)
			}
		}
		report.Migrated++
	}

	return report, nil
}
