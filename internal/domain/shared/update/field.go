// Package update provides Field, a tri-state value for partial updates.
//
// A Field is either Unchanged (leave the stored value alone), Clear (set the
// stored value to NULL) or Set (store a new value). The zero value is
// Unchanged, so an update struct decoded from a request body leaves every
// field it did not mention untouched.
package update

import "errors"

// ErrUnchangedBind is the panic value raised by BindValue on an Unchanged
// field. Callers must check ShouldUpdate first.
var ErrUnchangedBind = errors.New("update: cannot bind Unchanged value, check ShouldUpdate first")

type state uint8

const (
	stateUnchanged state = iota
	stateClear
	stateSet
)

// Field is a tri-state update of a value of type T
type Field[T any] struct {
	state state
	value T
}

// Unchanged returns a field that leaves the stored value alone
func Unchanged[T any]() Field[T] {
	return Field[T]{}
}

// Clear returns a field that sets the stored value to NULL
func Clear[T any]() Field[T] {
	return Field[T]{state: stateClear}
}

// Set returns a field that stores v
func Set[T any](v T) Field[T] {
	return Field[T]{state: stateSet, value: v}
}

// FromPtr returns Set(*p), or Clear when p is nil
func FromPtr[T any](p *T) Field[T] {
	if p == nil {
		return Clear[T]()
	}
	return Set(*p)
}

// ShouldUpdate reports whether the field is Clear or Set
func (f Field[T]) ShouldUpdate() bool {
	return f.state != stateUnchanged
}

// IsUnchanged reports whether the field leaves the stored value alone
func (f Field[T]) IsUnchanged() bool { return f.state == stateUnchanged }

// IsClear reports whether the field sets the stored value to null
func (f Field[T]) IsClear() bool { return f.state == stateClear }

// IsSet reports whether the field carries a new value
func (f Field[T]) IsSet() bool { return f.state == stateSet }

// IsZero reports whether the field is Unchanged. It lets encoding/json skip
// the field under the omitzero option.
func (f Field[T]) IsZero() bool {
	return f.state == stateUnchanged
}

// Value returns the Set value. Clear and Unchanged yield false.
func (f Field[T]) Value() (T, bool) {
	if f.state != stateSet {
		var zero T
		return zero, false
	}
	return f.value, true
}

// BindValue returns the value to write to the store: nil for Clear, a copy
// of the value for Set. It panics with ErrUnchangedBind on Unchanged.
func (f Field[T]) BindValue() *T {
	switch f.state {
	case stateClear:
		return nil
	case stateSet:
		v := f.value
		return &v
	default:
		panic(ErrUnchangedBind)
	}
}

// Option flattens the field: present is false only for Unchanged, value is
// nil for Clear.
func (f Field[T]) Option() (present bool, value *T) {
	if f.state == stateUnchanged {
		return false, nil
	}
	return true, f.BindValue()
}

// Or returns the Set value, or fallback otherwise
func (f Field[T]) Or(fallback T) T {
	if f.state == stateSet {
		return f.value
	}
	return fallback
}

// Apply writes the update to dst: Set stores a copy of the value, Clear
// stores nil, Unchanged does nothing.
func (f Field[T]) Apply(dst **T) {
	if f.state == stateUnchanged {
		return
	}
	*dst = f.BindValue()
}

func (f Field[T]) String() string {
	switch f.state {
	case stateClear:
		return "Clear"
	case stateSet:
		return "Set"
	default:
		return "Unchanged"
	}
}

// Map converts a Set value with fn and keeps Clear and Unchanged as they are
func Map[T, U any](f Field[T], fn func(T) U) Field[U] {
	switch f.state {
	case stateClear:
		return Clear[U]()
	case stateSet:
		return Set(fn(f.value))
	default:
		return Unchanged[U]()
	}
}

// bindAny exposes the bind value as an untyped value for column assignment
func (f Field[T]) bindAny() any {
	if p := f.BindValue(); p != nil {
		return *p
	}
	return nil
}

// validationValue is what struct validation sees for this field: the Set
// value, or nil so that omitempty skips Clear and Unchanged.
func (f Field[T]) validationValue() any {
	if f.state != stateSet {
		return nil
	}
	return f.value
}
