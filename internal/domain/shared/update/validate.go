package update

import (
	"encoding/json"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

type validatable interface {
	validationValue() any
}

// RegisterValidation teaches v to look through Field values of the common
// element types. Tags on a Field then apply to the Set value; Clear and
// Unchanged validate as nil, so rules should start with omitempty:
//
//	Email update.Field[string] `json:"email" binding:"omitempty,email,max=100"`
//
// Additional element types can be registered with RegisterType.
func RegisterValidation(v *validator.Validate) {
	RegisterType[string](v)
	RegisterType[int](v)
	RegisterType[int32](v)
	RegisterType[int64](v)
	RegisterType[float64](v)
	RegisterType[bool](v)
	RegisterType[decimal.Decimal](v)
	RegisterType[json.RawMessage](v)
	RegisterType[time.Time](v)
}

// RegisterType registers Field[T] with v
func RegisterType[T any](v *validator.Validate) {
	v.RegisterCustomTypeFunc(fieldValue, Field[T]{})
}

func fieldValue(field reflect.Value) any {
	if !field.CanInterface() {
		return nil
	}
	if f, ok := field.Interface().(validatable); ok {
		return f.validationValue()
	}
	return nil
}

// ValidateWith checks the Set value against tag. Clear and Unchanged are
// always valid.
func (f Field[T]) ValidateWith(v *validator.Validate, tag string) error {
	if f.state != stateSet {
		return nil
	}
	return v.Var(f.value, tag)
}

// ValidateStruct runs the struct rules of the Set value. Clear, Unchanged
// and non-struct values are always valid.
func (f Field[T]) ValidateStruct(v *validator.Validate) error {
	if f.state != stateSet {
		return nil
	}
	rv := reflect.ValueOf(f.value)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}
	return v.Struct(rv.Interface())
}
