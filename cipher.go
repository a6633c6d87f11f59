package sealedfield

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"

	"github.com/ai8future/sealedfield/internal/logging"
)

// Codec encrypts and decrypts single confidential field values with
// AES-256-CBC under a derived Key. It is immutable after New and safe for
// concurrent use.
type Codec struct {
	block                cipher.Block
	index                [32]byte
	logger               logging.Logger
	compressionThreshold int
}

// New creates a Codec bound to key. Decrypt failures are logged at Warn to
// slog.Default() unless WithLogger says otherwise.
//
// Example:
//
//	key := sealedfield.MustDeriveKey(os.Getenv("SEALEDFIELD_SECRET"))
//	codec, err := sealedfield.New(key, sealedfield.WithLogger(slog.Default()))
func New(key *Key, opts ...Option) (*Codec, error) {
	if key == nil {
		return nil, ErrNilKey
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	block, err := aes.NewCipher(key.encryption[:])
	if err != nil {
		return nil, err
	}

	return &Codec{
		block:                block,
		index:                key.index,
		logger:               cfg.logger,
		compressionThreshold: cfg.compressionThreshold,
	}, nil
}

// Encrypt returns plaintext in the ivHex:cipherHex form, using a fresh random
// IV on every call. The empty string is returned unchanged.
func (c *Codec) Encrypt(plaintext string) string {
	if plaintext == "" {
		return plaintext
	}
	return c.seal([]byte(plaintext)).String()
}

// EncryptValue encrypts v if it is a non-empty string and returns any other
// value (nil, numbers, empty string) unchanged.
func (c *Codec) EncryptValue(v any) any {
	s, ok := v.(string)
	if !ok || s == "" {
		return v
	}
	return c.Encrypt(s)
}

// Open decrypts value with an explicit result. Values that are not in the
// ciphertext shape are legacy plaintext and come back unchanged with a nil
// error. Shaped values that fail to decrypt return a *DecryptFailure.
func (c *Codec) Open(value string) (string, error) {
	switch v := Parse(value).(type) {
	case Ciphertext:
		plaintext, err := c.open(v)
		if err != nil {
			return "", &DecryptFailure{Err: err}
		}
		return string(plaintext), nil
	default:
		return value, nil
	}
}

// Decrypt never fails: on any decryption error it logs the cause and returns
// value unchanged. Use Open to observe failures.
func (c *Codec) Decrypt(value string) string {
	plaintext, err := c.Open(value)
	if err != nil {
		c.logger.Warn(context.Background(), "decrypt failed", "cause", err, "length", len(value))
		return value
	}
	return plaintext
}

// DecryptValue decrypts v if it is a string and returns anything else unchanged.
func (c *Codec) DecryptValue(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	return c.Decrypt(s)
}

// seal performs the actual encryption.
func (c *Codec) seal(plaintext []byte) Ciphertext {
	payload := pkcs7Pad(maybeCompress(plaintext, c.compressionThreshold))

	out := Ciphertext{IV: generateIV(), Data: make([]byte, len(payload))}
	cipher.NewCBCEncrypter(c.block, out.IV[:]).CryptBlocks(out.Data, payload)

	return out
}

// open reverses seal.
func (c *Codec) open(ct Ciphertext) ([]byte, error) {
	if len(ct.Data) == 0 || len(ct.Data)%aes.BlockSize != 0 {
		return nil, ErrInvalidFormat
	}

	decrypted := make([]byte, len(ct.Data))
	cipher.NewCBCDecrypter(c.block, ct.IV[:]).CryptBlocks(decrypted, ct.Data)

	unpadded, err := pkcs7Unpad(decrypted)
	if err != nil {
		return nil, err
	}

	return maybeDecompress(unpadded)
}

// pkcs7Pad pads data to a whole number of AES blocks.
func pkcs7Pad(data []byte) []byte {
	n := aes.BlockSize - len(data)%aes.BlockSize
	return append(append(make([]byte, 0, len(data)+n), data...), bytes.Repeat([]byte{byte(n)}, n)...)
}

// pkcs7Unpad strips and verifies PKCS#7 padding.
func pkcs7Unpad(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrInvalidPadding
	}
	n := int(data[len(data)-1])
	if n == 0 || n > aes.BlockSize || n > len(data) {
		return nil, ErrInvalidPadding
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, ErrInvalidPadding
		}
	}
	return data[:len(data)-n], nil
}

// generateIV generates a cryptographically secure random 16-byte IV.
// Panics if the system's random source fails (unrecoverable).
func generateIV() [ivSize]byte {
	var iv [ivSize]byte
	if _, err := rand.Read(iv[:]); err != nil {
		panic("crypto/rand failed: " + err.Error())
	}
	return iv
}
