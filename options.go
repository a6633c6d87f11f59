package sealedfield

import (
	"log/slog"
	"time"

	"github.com/ai8future/sealedfield/internal/logging"
)

// defaultScanTimeout bounds the full-table fetch of an equality lookup.
const defaultScanTimeout = 10 * time.Second

// Option is a functional option for configuring a Codec.
type Option func(*config)

// config holds codec configuration options.
type config struct {
	logger               logging.Logger
	compressionThreshold int
}

func defaultConfig() *config {
	return &config{logger: logging.NewSlogLogger(slog.Default())}
}

// WithLogger sets the logger that receives decrypt failures. Without it they
// go to slog.Default(); a nil l discards them.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = logging.NewSlogLogger(l)
	}
}

// WithCompression enables zstd compression of plaintexts of at least threshold
// bytes, applied before encryption. Compression is off by default so that
// ciphertexts stay readable by any AES-256-CBC implementation of this format.
func WithCompression(threshold int) Option {
	return func(c *config) {
		c.compressionThreshold = threshold
	}
}

// MapperOption configures a Mapper.
type MapperOption func(*Mapper)

// WithRegistry replaces the default confidential field registry.
func WithRegistry(r Registry) MapperOption {
	return func(m *Mapper) {
		m.registry = r
	}
}

// WithBlindIndex makes EncryptFields emit a <field>_idx blind index next to
// every indexable field it encrypts.
func WithBlindIndex() MapperOption {
	return func(m *Mapper) {
		m.blindIndex = true
	}
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithScanTimeout bounds each lookup, index query and full-table fetch
// together. Zero or negative disables the bound.
func WithScanTimeout(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		r.timeout = d
	}
}

// WithIndexLookup lets the resolver try blind index candidates before scanning,
// when the scanner implements IndexLookup.
func WithIndexLookup() ResolverOption {
	return func(r *Resolver) {
		r.indexLookup = true
	}
}

// WithResolverLogger sets the logger that receives scan statistics.
func WithResolverLogger(l *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = logging.NewSlogLogger(l)
	}
}
