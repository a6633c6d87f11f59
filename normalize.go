package sealedfield

import "strings"

// Normalizer maps a plaintext to the canonical form that a blind index is
// computed over. Writers and searchers must agree on the normalizer.
//
// DefaultRegistry only uses NormalizeEmail. The others are for registries
// passed to WithRegistry, e.g. an indexed phone column:
//
//	reg := sealedfield.DefaultRegistry()
//	reg["contact"] = []sealedfield.Field{{Name: "phone", Index: sealedfield.NormalizePhone}}
type Normalizer func(string) string

// NormalizeEmail lowercases and trims: " Alice@Example.COM " -> "alice@example.com".
var NormalizeEmail Normalizer = func(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizePhone keeps ASCII digits only: "(555) 123-4567" -> "5551234567".
var NormalizePhone Normalizer = func(s string) string {
	var digits strings.Builder
	digits.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	return digits.String()
}

// NormalizeNone is the identity.
var NormalizeNone Normalizer = func(s string) string {
	return s
}

// NormalizeTrim trims surrounding whitespace and preserves case.
var NormalizeTrim Normalizer = strings.TrimSpace
