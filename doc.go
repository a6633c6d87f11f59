// Package sealedfield keeps the confidential text fields of users, projects,
// goals and tasks encrypted at rest while leaving them readable and searchable
// by exact value.
//
// # Encryption
//
// A single AES-256 key is derived once per process as SHA-256 of a configured
// secret. Each value is encrypted with AES-256-CBC under a fresh random 16-byte
// IV and stored as
//
//	<32 hex chars of IV>:<hex ciphertext>
//
// Values without that shape are legacy plaintext and decrypt to themselves,
// so un-migrated rows keep working.
//
//	key, err := sealedfield.DeriveKey(secret) // fails on an empty secret
//	codec, err := sealedfield.New(key)
//
//	ct := codec.Encrypt("alice@example.com")
//	pt := codec.Decrypt(ct) // never fails; logs and returns ct on error
//	pt, err = codec.Open(ct) // explicit result
//
// # Records
//
// A Mapper knows which fields of each entity are confidential and applies the
// codec to whole records:
//
//	m := sealedfield.NewMapper(codec)
//	row := m.EncryptFields(sealedfield.EntityUser, sealedfield.Record{"email": "alice@example.com"})
//	rec := m.DecryptFields(sealedfield.EntityUser, row)
//
// EncryptFields only touches fields present in its input, so an update that
// carries one field leaves the stored ciphertext of the others alone.
// Embedded records are not walked: decrypt them with DecryptEmbedded under
// their own entity type.
//
// # Equality lookup
//
// Encryption is randomized, so equal plaintexts never produce equal
// ciphertexts and storage cannot filter on them. A Resolver therefore fetches
// every row of the entity, decrypts the field of each and returns the first
// exact match. This is linear in the table size on every call.
//
//	r, _ := sealedfield.NewResolver(m, store)
//	user, err := r.FindByConfidentialField(ctx, sealedfield.EntityUser, "email", "bob@x.com")
//	if errors.Is(err, sealedfield.ErrNotFound) { ... }
//
// # Blind indexes
//
// With WithBlindIndex the mapper also writes a keyed HMAC of indexable fields
// into <field>_idx. A resolver built WithIndexLookup over a store that
// implements IndexLookup checks those candidates first and only scans when
// none of them match, which keeps legacy rows findable.
//
// # Storage
//
// Store adapters live in store/memstore, store/pgstore (PostgreSQL, JSONB)
// and store/badgerstore (embedded Badger). Repository combines a Store with a
// Mapper and Resolver so that every read path decrypts.
package sealedfield
