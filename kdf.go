package sealedfield

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"
)

// infoBlindIndex separates the blind index subkey from the cipher key.
const infoBlindIndex = "sealedfield-blind-index"

// Key holds the symmetric key derived from the process secret.
// It is immutable once derived and safe to share across goroutines.
type Key struct {
	encryption [32]byte // AES-256 key
	index      [32]byte // HMAC-SHA256 key for blind indexes
}

// DeriveKey derives the AES-256 key as SHA-256 of the configured secret.
// The result is deterministic for a fixed secret, so rows written by one
// process stay readable by the next. An empty secret is rejected.
func DeriveKey(secret string) (*Key, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}

	k := &Key{encryption: sha256.Sum256([]byte(secret))}

	reader := hkdf.New(sha256.New, k.encryption[:], nil, []byte(infoBlindIndex))
	if _, err := io.ReadFull(reader, k.index[:]); err != nil {
		return nil, err
	}

	return k, nil
}

// MustDeriveKey is like DeriveKey but panics on error.
// Use it at startup where a missing secret is unrecoverable.
func MustDeriveKey(secret string) *Key {
	k, err := DeriveKey(secret)
	if err != nil {
		panic(err)
	}
	return k
}
