package sealedfield

import (
	"bytes"
	"sync"

	"github.com/klauspost/compress/zstd"
)

const (
	minCompressionSavings = 0.10 // 10% minimum savings to keep the compressed form

	// maxDecompressedSize bounds what a compressed payload may expand to.
	// Longer plaintexts are stored uncompressed.
	maxDecompressedSize = 1 << 20
)

// zstdMagic opens every zstd frame. 0xB5 is a UTF-8 continuation byte, so no
// valid UTF-8 string starts with this sequence.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// rawMarker prefixes an uncompressed payload that would otherwise start with
// a marker. It is invalid UTF-8 for the same reason as zstdMagic.
var rawMarker = []byte{0x28, 0xb5, 0x2f, 0xfe}

var (
	// zstd encoder and decoder are thread-safe and reusable
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
	zstdOnce    sync.Once
	zstdErr     error
)

// initZstd initializes the zstd encoder and decoder once.
func initZstd() (*zstd.Encoder, *zstd.Decoder, error) {
	zstdOnce.Do(func() {
		zstdEncoder, zstdErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if zstdErr != nil {
			return
		}
		zstdDecoder, zstdErr = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxDecompressedSize))
		if zstdErr != nil {
			zstdEncoder.Close()
			zstdEncoder = nil
		}
	})
	return zstdEncoder, zstdDecoder, zstdErr
}

func compressZstd(data []byte) ([]byte, error) {
	encoder, _, err := initZstd()
	if err != nil {
		return nil, err
	}
	return encoder.EncodeAll(data, nil), nil
}

func decompressZstd(data []byte) ([]byte, error) {
	_, decoder, err := initZstd()
	if err != nil {
		return nil, err
	}
	result, err := decoder.DecodeAll(data, nil)
	if err != nil || len(result) > maxDecompressedSize {
		return nil, ErrDecompressionFailed
	}
	return result, nil
}

func isCompressed(data []byte) bool {
	return bytes.HasPrefix(data, zstdMagic)
}

func hasMarker(data []byte) bool {
	return isCompressed(data) || bytes.HasPrefix(data, rawMarker)
}

// maybeCompress returns data compressed when it is between threshold and
// maxDecompressedSize bytes and zstd saves enough. A threshold <= 0 disables
// compression. Uncompressed data that starts with a marker is escaped with
// rawMarker so that maybeDecompress reads it back unchanged.
func maybeCompress(data []byte, threshold int) []byte {
	if threshold > 0 && len(data) >= threshold && len(data) <= maxDecompressedSize {
		compressed, err := compressZstd(data)
		if err == nil {
			savings := float64(len(data)-len(compressed)) / float64(len(data))
			if savings >= minCompressionSavings {
				return compressed
			}
		}
	}

	if hasMarker(data) {
		return append(append(make([]byte, 0, len(rawMarker)+len(data)), rawMarker...), data...)
	}
	return data
}

// maybeDecompress reverses maybeCompress.
func maybeDecompress(data []byte) ([]byte, error) {
	switch {
	case bytes.HasPrefix(data, rawMarker):
		return data[len(rawMarker):], nil
	case isCompressed(data):
		return decompressZstd(data)
	default:
		return data, nil
	}
}
