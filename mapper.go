package sealedfield

// Mapper applies a Codec to the confidential fields of whole records, as
// described by a Registry. It is safe for concurrent use.
type Mapper struct {
	codec      *Codec
	registry   Registry
	blindIndex bool
}

// NewMapper creates a Mapper over the default registry.
func NewMapper(codec *Codec, opts ...MapperOption) *Mapper {
	m := &Mapper{codec: codec, registry: DefaultRegistry()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Codec returns the underlying codec.
func (m *Mapper) Codec() *Codec {
	return m.codec
}

// Registry returns the confidential field registry.
func (m *Mapper) Registry() Registry {
	return m.registry
}

// EncryptFields prepares a create or update payload. Every confidential field
// present with a string value is encrypted. Confidential fields present with a
// nil or non-string value are dropped, so a storage merge keeps what was stored
// before. Absent fields stay absent and other fields pass through.
//
// Example:
//
//	m.EncryptFields(EntityProject, Record{"name": "Apollo", "description": nil})
//	// Record{"name": "<iv>:<ciphertext>"}
func (m *Mapper) EncryptFields(entity Entity, partial Record) Record {
	if partial == nil {
		return nil
	}

	out := partial.Clone()
	for _, f := range m.registry.Fields(entity) {
		v, present := out[f.Name]
		if !present {
			continue
		}

		s, ok := v.(string)
		if !ok {
			delete(out, f.Name)
			continue
		}

		out[f.Name] = m.codec.Encrypt(s)

		if m.blindIndex && f.Indexed() {
			if s == "" {
				out[IndexColumn(f.Name)] = nil
			} else {
				out[IndexColumn(f.Name)] = m.codec.BlindIndex(entity, f.Name, s, f.Index)
			}
		}
	}

	return out
}

// DecryptFields returns a copy of record with every present confidential
// field decrypted and blind index columns removed. It never fails;
// undecryptable values are left as stored.
func (m *Mapper) DecryptFields(entity Entity, record Record) Record {
	if record == nil {
		return nil
	}

	out := record.Clone()
	for _, f := range m.registry.Fields(entity) {
		if v, present := out[f.Name]; present {
			out[f.Name] = m.codec.DecryptValue(v)
		}
		if f.Indexed() {
			delete(out, IndexColumn(f.Name))
		}
	}

	return out
}

// DecryptMany applies DecryptFields to each record, preserving order.
func (m *Mapper) DecryptMany(entity Entity, records []Record) []Record {
	if records == nil {
		return nil
	}

	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = m.DecryptFields(entity, r)
	}
	return out
}

// DecryptEmbedded decrypts the sub-record (or slice of sub-records) stored under
// parent[key] as entity, e.g. a goal's owner as EntityUser. It does not walk
// further; each call site decrypts every nested confidential object it returns.
func (m *Mapper) DecryptEmbedded(parent Record, key string, entity Entity) Record {
	if parent == nil {
		return nil
	}

	out := parent.Clone()
	switch sub := out[key].(type) {
	case Record:
		out[key] = m.DecryptFields(entity, sub)
	case map[string]any:
		out[key] = m.DecryptFields(entity, sub)
	case []Record:
		out[key] = m.DecryptMany(entity, sub)
	case []map[string]any:
		decrypted := make([]Record, len(sub))
		for i, r := range sub {
			decrypted[i] = m.DecryptFields(entity, r)
		}
		out[key] = decrypted
	case []any:
		decrypted := make([]any, len(sub))
		for i, v := range sub {
			switch r := v.(type) {
			case Record:
				decrypted[i] = m.DecryptFields(entity, r)
			case map[string]any:
				decrypted[i] = m.DecryptFields(entity, r)
			default:
				decrypted[i] = v
			}
		}
		out[key] = decrypted
	}

	return out
}
