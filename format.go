package sealedfield

import (
	"encoding/hex"
	"strings"
)

// At-rest format:
//
//	<ivHex:32>:<cipherHex>
//
// Exactly one colon separates two hex segments. The IV segment is 16 bytes,
// hex encoded. Values without this shape are legacy plaintext.

const (
	ivSize    = 16
	ivHexSize = ivSize * 2
)

// StoredValue is the tagged form of a persisted confidential field.
// It is either Plaintext or Ciphertext.
type StoredValue interface {
	// String renders the value exactly as it is stored.
	String() string
	stored()
}

// Plaintext is a stored value that was never encrypted (legacy, un-migrated rows).
type Plaintext string

func (p Plaintext) String() string { return string(p) }
func (Plaintext) stored()          {}

// Ciphertext is a stored value produced by Encrypt.
type Ciphertext struct {
	IV   [ivSize]byte
	Data []byte
}

// String renders the ivHex:cipherHex form.
func (c Ciphertext) String() string {
	var b strings.Builder
	b.Grow(ivHexSize + 1 + hex.EncodedLen(len(c.Data)))
	b.WriteString(hex.EncodeToString(c.IV[:]))
	b.WriteByte(':')
	b.WriteString(hex.EncodeToString(c.Data))
	return b.String()
}

func (Ciphertext) stored() {}

// Parse classifies a stored string. Anything not in the exact
// ivHex:cipherHex shape comes back as Plaintext.
func Parse(s string) StoredValue {
	c, err := parseCiphertext(s)
	if err != nil {
		return Plaintext(s)
	}
	return c
}

// IsCiphertext reports whether s has the ivHex:cipherHex shape.
func IsCiphertext(s string) bool {
	_, err := parseCiphertext(s)
	return err == nil
}

// parseCiphertext decodes the ivHex:cipherHex shape.
func parseCiphertext(s string) (Ciphertext, error) {
	var c Ciphertext

	ivPart, dataPart, ok := strings.Cut(s, ":")
	if !ok || strings.Contains(dataPart, ":") {
		return c, ErrInvalidFormat
	}
	if len(ivPart) != ivHexSize || dataPart == "" {
		return c, ErrInvalidFormat
	}

	if _, err := hex.Decode(c.IV[:], []byte(ivPart)); err != nil {
		return c, ErrInvalidFormat
	}

	data, err := hex.DecodeString(dataPart)
	if err != nil {
		return c, ErrInvalidFormat
	}
	c.Data = data

	return c, nil
}
