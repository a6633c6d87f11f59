package sealedfield

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"encoding/hex"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

var ciphertextShape = regexp.MustCompile(`^[0-9a-f]{32}:[0-9a-f]+$`)

func testCodec(t testing.TB, opts ...Option) *Codec {
	t.Helper()
	codec, err := New(MustDeriveKey("test-secret"), opts...)
	require.NoError(t, err)
	return codec
}

func TestNew_NilKey(t *testing.T) {
	_, err := New(nil)
	require.ErrorIs(t, err, ErrNilKey)
}

func TestEncrypt_Shape(t *testing.T) {
	codec := testCodec(t)

	ct := codec.Encrypt("alice@example.com")
	require.Regexp(t, ciphertextShape, ct)
	require.Equal(t, 1, strings.Count(ct, ":"))
	require.Len(t, strings.SplitN(ct, ":", 2)[0], 32)

	require.Equal(t, "alice@example.com", codec.Decrypt(ct))
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	codec := testCodec(t)

	tests := []struct {
		name      string
		plaintext string
	}{
		{"email", "alice@example.com"},
		{"single char", "a"},
		{"exact block", strings.Repeat("b", aes.BlockSize)},
		{"block minus one", strings.Repeat("c", aes.BlockSize-1)},
		{"unicode", "こんにちは世界"},
		{"colon inside", "a:b:c"},
		{"looks like ciphertext", strings.Repeat("0", 32) + ":abcd"},
		{"large text", strings.Repeat("x", 10000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ct := codec.Encrypt(tt.plaintext)
			require.NotEqual(t, tt.plaintext, ct)
			require.True(t, IsCiphertext(ct))

			pt, err := codec.Open(ct)
			require.NoError(t, err)
			require.Equal(t, tt.plaintext, pt)
			require.Equal(t, tt.plaintext, codec.Decrypt(ct))
		})
	}
}

func TestEncrypt_NonDeterministic(t *testing.T) {
	codec := testCodec(t)

	ct1 := codec.Encrypt("same value")
	ct2 := codec.Encrypt("same value")
	require.NotEqual(t, ct1, ct2)
	require.NotEqual(t, ct1[:32], ct2[:32], "IVs must differ")

	require.Equal(t, codec.Decrypt(ct1), codec.Decrypt(ct2))
}

func TestEncrypt_EmptyIsNoop(t *testing.T) {
	codec := testCodec(t)
	require.Equal(t, "", codec.Encrypt(""))
}

func TestEncryptValue_NonStrings(t *testing.T) {
	codec := testCodec(t)

	require.Nil(t, codec.EncryptValue(nil))
	require.Equal(t, 42, codec.EncryptValue(42))
	require.Equal(t, "", codec.EncryptValue(""))
	require.Equal(t, true, codec.EncryptValue(true))

	ct, ok := codec.EncryptValue("x").(string)
	require.True(t, ok)
	require.True(t, IsCiphertext(ct))
}

func TestDecrypt_IdentityOnPlaintext(t *testing.T) {
	codec := testCodec(t)

	tests := []string{
		"",
		"hello world",
		"not-encrypted-value",
		"a:not-hex",
		"no colon at all",
		"two:colons:here",
		strings.Repeat("a", 32) + ":" + "abcd:ef",
		strings.Repeat("a", 31) + ":abcd",
		strings.Repeat("a", 32) + ":",
		strings.Repeat("g", 32) + ":abcd",
		strings.Repeat("a", 32) + ":xyz",
	}

	for _, p := range tests {
		t.Run(p, func(t *testing.T) {
			require.Equal(t, p, codec.Decrypt(p))

			pt, err := codec.Open(p)
			require.NoError(t, err)
			require.Equal(t, p, pt)
		})
	}
}

// sealRaw CBC-encrypts payload as is, without padding, so tests can build
// ciphertexts whose plaintext padding is known to be broken.
func sealRaw(c *Codec, payload []byte) string {
	out := Ciphertext{IV: generateIV(), Data: make([]byte, len(payload))}
	cipher.NewCBCEncrypter(c.block, out.IV[:]).CryptBlocks(out.Data, payload)
	return out.String()
}

func TestDecrypt_BadPaddingReturnsInputAndLogs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	codec := testCodec(t, WithLogger(logger))

	// last byte 0 is never valid PKCS#7
	broken := sealRaw(codec, bytes.Repeat([]byte{0}, aes.BlockSize))
	require.True(t, IsCiphertext(broken))

	var got string
	require.NotPanics(t, func() { got = codec.Decrypt(broken) })
	require.Equal(t, broken, got)
	require.Contains(t, buf.String(), "decrypt failed")
	require.Contains(t, buf.String(), "invalid padding")
	require.NotContains(t, buf.String(), broken, "stored values must not be logged")
}

func TestOpen_ExplicitFailure(t *testing.T) {
	codec := testCodec(t)

	tests := []struct {
		name  string
		value string
		cause error
	}{
		{"not a whole block", strings.Repeat("0", 32) + ":abcd", ErrInvalidFormat},
		{"bad padding", sealRaw(codec, bytes.Repeat([]byte{'x'}, aes.BlockSize)), ErrInvalidPadding},
		{"bad compressed payload", sealRaw(codec, pkcs7Pad(append(append([]byte{}, zstdMagic...), 0xff, 0xff, 0xff))), ErrDecompressionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pt, err := codec.Open(tt.value)
			require.Empty(t, pt)
			require.ErrorIs(t, err, ErrDecryptionFailed)
			require.ErrorIs(t, err, tt.cause)

			var failure *DecryptFailure
			require.ErrorAs(t, err, &failure)

			require.Equal(t, tt.value, codec.Decrypt(tt.value))
		})
	}
}

func TestDecrypt_OtherSecretNeverPanics(t *testing.T) {
	other := testCodecWithSecret(t, "other-secret")
	ct := testCodec(t).Encrypt("alice@example.com")

	require.NotPanics(t, func() { other.Decrypt(ct) })
	require.NotEqual(t, "alice@example.com", other.Decrypt(ct))
}

func testCodecWithSecret(t testing.TB, secret string) *Codec {
	t.Helper()
	codec, err := New(MustDeriveKey(secret))
	require.NoError(t, err)
	return codec
}

func TestDecrypt_UppercaseHex(t *testing.T) {
	codec := testCodec(t)
	ct := codec.Encrypt("shout")
	require.Equal(t, "shout", codec.Decrypt(strings.ToUpper(ct)))
}

// Ciphertexts must stay readable by a plain AES-256-CBC/PKCS#7 implementation
// keyed with SHA-256 of the secret.
func TestEncrypt_InteroperableFormat(t *testing.T) {
	codec := testCodec(t)
	key := MustDeriveKey("test-secret")

	ct := codec.Encrypt("interop")
	ivHex, dataHex, _ := strings.Cut(ct, ":")
	iv, err := hex.DecodeString(ivHex)
	require.NoError(t, err)
	data, err := hex.DecodeString(dataHex)
	require.NoError(t, err)

	block, err := aes.NewCipher(key.encryption[:])
	require.NoError(t, err)
	out := make([]byte, len(data))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, data)

	pad := int(out[len(out)-1])
	require.Equal(t, "interop", string(out[:len(out)-pad]))
}

func TestCodec_ConcurrentAccess(t *testing.T) {
	codec := testCodec(t)

	var wg sync.WaitGroup
	errs := make(chan string, 100)

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			plaintext := strings.Repeat("p", n+1)
			if got := codec.Decrypt(codec.Encrypt(plaintext)); got != plaintext {
				errs <- got
			}
		}(i)
	}

	wg.Wait()
	close(errs)
	for got := range errs {
		t.Errorf("round trip mismatch: %q", got)
	}
}

func TestPKCS7(t *testing.T) {
	for n := 0; n <= 2*aes.BlockSize; n++ {
		data := bytes.Repeat([]byte{'x'}, n)
		padded := pkcs7Pad(data)
		require.Zero(t, len(padded)%aes.BlockSize)
		require.Greater(t, len(padded), n)

		unpadded, err := pkcs7Unpad(padded)
		require.NoError(t, err)
		require.Equal(t, data, unpadded)
	}

	_, err := pkcs7Unpad(nil)
	require.ErrorIs(t, err, ErrInvalidPadding)

	bad := bytes.Repeat([]byte{3}, aes.BlockSize)
	bad[len(bad)-2] = 9
	_, err = pkcs7Unpad(bad)
	require.ErrorIs(t, err, ErrInvalidPadding)

	_, err = pkcs7Unpad(append(bytes.Repeat([]byte{'x'}, aes.BlockSize-1), 0))
	require.ErrorIs(t, err, ErrInvalidPadding)
}
