package sealedfield

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// IndexColumn names the record key that holds the blind index of field.
func IndexColumn(field string) string {
	return field + "_idx"
}

// BlindIndex computes a deterministic, keyed HMAC-SHA256 of the normalized
// value, hex encoded. The entity and field are mixed in so that equal values
// in different columns do not share an index.
//
// Unlike Encrypt the result is stable, which is what makes it searchable;
// it reveals equality between rows and nothing else.
func (c *Codec) BlindIndex(entity Entity, field, value string, norm Normalizer) string {
	if norm == nil {
		norm = NormalizeNone
	}

	h := hmac.New(sha256.New, c.index[:])
	h.Write([]byte(entity))
	h.Write([]byte{'.'})
	h.Write([]byte(field))
	h.Write([]byte{0})
	h.Write([]byte(norm(value)))

	return hex.EncodeToString(h.Sum(nil))
}
