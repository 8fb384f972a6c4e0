// Package paramset models the per-leg transport parameter sets for
// senders and receivers, including the "auto" sentinel that staged
// values may carry in place of a concrete port or address.
package paramset

import (
	"encoding/json"
	"fmt"
)

const autoLiteral = "auto"

// Value is a tagged union of "the staged value is the literal string
// auto" and "the staged value is a concrete T". Active parameter sets
// never contain an Auto value; that invariant is enforced by the
// resolver, not by this type.
type Value[T any] struct {
	IsAuto bool
	Val    T
}

// Auto constructs the "auto" sentinel for T.
func Auto[T any]() Value[T] {
	return Value[T]{IsAuto: true}
}

// Concrete wraps a resolved value of T.
func Concrete[T any](v T) Value[T] {
	return Value[T]{Val: v}
}

// MarshalJSON renders the sentinel string "auto" or the underlying value.
func (v Value[T]) MarshalJSON() ([]byte, error) {
	if v.IsAuto {
		return json.Marshal(autoLiteral)
	}
	return json.Marshal(v.Val)
}

// UnmarshalJSON accepts either the literal "auto" or a JSON value
// decodable into T.
func (v *Value[T]) UnmarshalJSON(data []byte) error {
	var maybeString string
	if err := json.Unmarshal(data, &maybeString); err == nil && maybeString == autoLiteral {
		v.IsAuto = true
		var zero T
		v.Val = zero
		return nil
	}
	var val T
	if err := json.Unmarshal(data, &val); err != nil {
		return fmt.Errorf("paramset: cannot decode value: %w", err)
	}
	v.IsAuto = false
	v.Val = val
	return nil
}

// FromAny builds a Value[T] from a decoded JSON scalar (string, float64,
// bool, ...) as produced by encoding/json into interface{}. It is used
// when applying a patch fragment that was decoded generically.
func FromAny[T any](raw interface{}) (Value[T], error) {
	if s, ok := raw.(string); ok && s == autoLiteral {
		return Auto[T](), nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return Value[T]{}, err
	}
	var val T
	if err := json.Unmarshal(data, &val); err != nil {
		return Value[T]{}, fmt.Errorf("paramset: invalid value %v: %w", raw, err)
	}
	return Concrete(val), nil
}
