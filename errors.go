package sealedfield

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSecret indicates the configured secret is absent or empty.
	ErrNoSecret = errors.New("sealedfield: secret must not be empty")

	// ErrNilKey indicates New was called without a derived key.
	ErrNilKey = errors.New("sealedfield: key is nil")

	// ErrDecryptionFailed indicates a ciphertext-shaped value could not be decrypted
	// (wrong key, corrupted bytes or bad padding).
	ErrDecryptionFailed = errors.New("sealedfield: decryption failed")

	// ErrInvalidFormat indicates the value is not in the ivHex:cipherHex shape.
	ErrInvalidFormat = errors.New("sealedfield: invalid ciphertext format")

	// ErrInvalidPadding indicates the decrypted block does not end in valid PKCS#7 padding.
	ErrInvalidPadding = errors.New("sealedfield: invalid padding")

	// ErrDecompressionFailed indicates a compressed payload could not be expanded.
	ErrDecompressionFailed = errors.New("sealedfield: decompression failed")

	// ErrNotFound indicates no record matched. It is a clean miss, not a failure.
	ErrNotFound = errors.New("sealedfield: not found")

	// ErrDuplicateID indicates a create with an id that is already stored.
	ErrDuplicateID = errors.New("sealedfield: duplicate id")

	// ErrNotConfidential indicates the field is not registered as confidential for the entity.
	ErrNotConfidential = errors.New("sealedfield: field is not confidential")

	// ErrNilStore indicates a resolver or repository was built without storage.
	ErrNilStore = errors.New("sealedfield: store is nil")
)

// DecryptFailure is returned by Open when a ciphertext-shaped value cannot be
// decrypted. It matches ErrDecryptionFailed and its cause with errors.Is.
type DecryptFailure struct {
	Err error
}

func (f *DecryptFailure) Error() string {
	return fmt.Sprintf("%s: %v", ErrDecryptionFailed, f.Err)
}

func (f *DecryptFailure) Unwrap() []error {
	return []error{ErrDecryptionFailed, f.Err}
}
