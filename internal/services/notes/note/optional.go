package note

import (
	"bytes"
	"encoding/json"
)

// Optional is a JSON field that distinguishes absent, explicit null, and a
// value. The zero Optional is absent.
type Optional[T any] struct {
	value T
	set   bool
	null  bool
}

// Some returns a present Optional holding value.
func Some[T any](value T) Optional[T] {
	return Optional[T]{value: value, set: true}
}

// Null returns a present Optional holding an explicit null.
func Null[T any]() Optional[T] {
	return Optional[T]{set: true, null: true}
}

// IsSet reports whether the field appeared in the input.
func (o Optional[T]) IsSet() bool { return o.set }

// IsNull reports whether the field appeared as an explicit null.
func (o Optional[T]) IsNull() bool { return o.set && o.null }

// Value returns the held value and whether one is present and non-null.
func (o Optional[T]) Value() (T, bool) {
	return o.value, o.set && !o.null
}

// UnmarshalJSON marks the field present. encoding/json only calls it for
// keys that appear in the object, which leaves absent fields unset.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		var zero T
		o.value = zero
		o.null = true
		return nil
	}
	o.null = false
	return json.Unmarshal(data, &o.value)
}

// MarshalJSON writes the value, or null when absent or null.
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.set || o.null {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}
