package report

import (
	"fmt"
	"maps"
	"slices"
)

// Well-known attribute keys.
const (
	AttrName         = "name"
	AttrMarkdown     = "markdown"
	AttrSize         = "size"
	AttrTruncated    = "truncated"
	AttrTableSource  = "table_remote"
	AttrFigureSource = "figure_remote"
)

// Attributes is an immutable map from key to typed value. The zero value is
// an empty store. With returns a new store and never modifies the receiver.
type Attributes struct {
	values map[string]any
}

// With returns a copy of a with key set to value. A nil value removes the key.
func (a Attributes) With(key string, value any) Attributes {
	values := make(map[string]any, len(a.values)+1)
	maps.Copy(values, a.values)
	if value == nil {
		delete(values, key)
	} else {
		values[key] = value
	}
	return Attributes{values: values}
}

// Has reports whether key is present.
func (a Attributes) Has(key string) bool {
	_, ok := a.values[key]
	return ok
}

// Len returns the number of attributes.
func (a Attributes) Len() int { return len(a.values) }

// Keys returns the attribute keys in sorted order. Intended for debugging.
func (a Attributes) Keys() []string {
	return slices.Sorted(maps.Keys(a.values))
}

// Value returns the raw value stored under key.
func (a Attributes) Value(key string) (any, bool) {
	v, ok := a.values[key]
	return v, ok
}

// Get returns the value stored under key as a T. It fails with
// [ErrNoAttribute] when key is absent and [ErrTypeMismatch] when the stored
// value is not a T.
func Get[T any](a Attributes, key string) (T, error) {
	var zero T
	raw, ok := a.values[key]
	if !ok {
		return zero, fmt.Errorf("%w: %q", ErrNoAttribute, key)
	}
	v, ok := raw.(T)
	if !ok {
		return zero, fmt.Errorf("%w: attribute %q holds %T, not %T", ErrTypeMismatch, key, raw, zero)
	}
	return v, nil
}

// GetOr returns the value stored under key as a T, or def when key is absent.
// A present value of the wrong type still fails with [ErrTypeMismatch].
func GetOr[T any](a Attributes, key string, def T) (T, error) {
	if !a.Has(key) {
		return def, nil
	}
	return Get[T](a, key)
}

// lookup is Get with absence reported through ok instead of an error.
func lookup[T any](a Attributes, key string) (v T, ok bool, err error) {
	if !a.Has(key) {
		return v, false, nil
	}
	v, err = Get[T](a, key)
	return v, err == nil, err
}
