package collection

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Ref models a relational field that the upstream API may expand to a
// full object or collapse to a bare identifier string, depending on
// whether the endpoint populated the relation. Decoding resolves the
// shape exactly once so downstream code never re-probes it.
type Ref[T any] struct {
	populated bool
	value     T
	id        string
}

// Populated wraps a fully expanded value.
func Populated[T any](v T) Ref[T] {
	return Ref[T]{populated: true, value: v}
}

// Reference wraps a bare identifier.
func Reference[T any](id string) Ref[T] {
	return Ref[T]{id: id}
}

// Value returns the expanded object and whether one was present.
func (r Ref[T]) Value() (T, bool) {
	return r.value, r.populated
}

// ID returns the bare identifier when the relation was not expanded.
func (r Ref[T]) ID() string {
	return r.id
}

// IsZero reports whether the field was absent entirely.
func (r Ref[T]) IsZero() bool {
	return !r.populated && r.id == ""
}

// UnmarshalJSON accepts either an object (populated), a string
// (identifier), or null (absent).
func (r *Ref[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = Ref[T]{}
		return nil
	}
	switch data[0] {
	case '"':
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return fmt.Errorf("collection: decode reference id: %w", err)
		}
		*r = Reference[T](id)
		return nil
	case '{':
		var v T
		if err := json.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("collection: decode populated value: %w", err)
		}
		*r = Populated(v)
		return nil
	default:
		return fmt.Errorf("collection: unexpected relation payload %q", data)
	}
}

// MarshalJSON renders the populated value, the bare id, or null.
func (r Ref[T]) MarshalJSON() ([]byte, error) {
	if r.populated {
		return json.Marshal(r.value)
	}
	if r.id != "" {
		return json.Marshal(r.id)
	}
	return []byte("null"), nil
}
