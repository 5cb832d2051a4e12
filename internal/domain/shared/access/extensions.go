package access

import "reflect"

// Extensions is an immutable registry of request-scoped values keyed by
// their Go type. At most one value per type is held.
//
// A registry is never modified after it is built: SetExtension returns a new
// registry, so a *Extensions can be shared freely between contexts and
// goroutines.
type Extensions struct {
	values map[reflect.Type]any
}

// NewExtensions returns an empty registry
func NewExtensions() *Extensions {
	return &Extensions{}
}

// SetExtension returns a registry holding every value of e plus v, replacing
// any previous value of type T. e itself is left untouched; a nil e is
// treated as empty.
func SetExtension[T any](e *Extensions, v T) *Extensions {
	var size int
	if e != nil {
		size = len(e.values)
	}
	values := make(map[reflect.Type]any, size+1)
	if e != nil {
		for k, val := range e.values {
			values[k] = val
		}
	}
	values[reflect.TypeFor[T]()] = v
	return &Extensions{values: values}
}

// GetExtension returns the value of type T, if one was set
func GetExtension[T any](e *Extensions) (T, bool) {
	var zero T
	if e == nil {
		return zero, false
	}
	raw, ok := e.values[reflect.TypeFor[T]()]
	if !ok {
		return zero, false
	}
	v, ok := raw.(T)
	if !ok {
		return zero, false
	}
	return v, true
}

// Len returns the number of stored values
func (e *Extensions) Len() int {
	if e == nil {
		return 0
	}
	return len(e.values)
}
