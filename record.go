package sealedfield

// IDKey is the record key that holds the identifier.
const IDKey = "id"

// Record is a stored or partial entity. A key present with a nil value is an
// explicit null; an absent key means "not part of this write".
type Record map[string]any

// ID returns the record identifier, or "" if it has none.
func (r Record) ID() string {
	id, _ := r[IDKey].(string)
	return id
}

// String returns the value of key if it is a string.
func (r Record) String(key string) (string, bool) {
	s, ok := r[key].(string)
	return s, ok
}

// Clone returns a shallow copy. Nil stays nil.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Merge returns a copy of r with every key of patch written over it.
// It is the partial-update rule that all stores follow.
func (r Record) Merge(patch Record) Record {
	out := r.Clone()
	if out == nil {
		out = make(Record, len(patch))
	}
	for k, v := range patch {
		out[k] = v
	}
	return out
}
