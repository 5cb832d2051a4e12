package update

import (
	"bytes"
	"encoding/json"
	"fmt"
)

var jsonNull = []byte("null")

// MarshalJSON encodes Set as the value itself. Clear and Unchanged both
// encode as null; use the omitzero option to drop Unchanged fields instead.
func (f Field[T]) MarshalJSON() ([]byte, error) {
	if f.state != stateSet {
		return jsonNull, nil
	}
	return json.Marshal(f.value)
}

// UnmarshalJSON is only called by encoding/json when the key is present in
// the object, so an absent key keeps the zero value (Unchanged), null becomes
// Clear and any other value becomes Set.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), jsonNull) {
		*f = Clear[T]()
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = Set(v)
	return nil
}

// Presence decodes a JSON object into its raw members so callers can tell an
// absent key from a null one without a typed struct.
func Presence(data []byte) (map[string]json.RawMessage, error) {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil {
		return nil, fmt.Errorf("decode object: %w", err)
	}
	if members == nil {
		return nil, fmt.Errorf("decode object: expected a JSON object, got null")
	}
	return members, nil
}

// Lookup resolves key against members returned by Presence: absent is
// Unchanged, null is Clear, anything else is decoded into Set.
func Lookup[T any](members map[string]json.RawMessage, key string) (Field[T], error) {
	raw, ok := members[key]
	if !ok {
		return Unchanged[T](), nil
	}
	var f Field[T]
	if err := f.UnmarshalJSON(raw); err != nil {
		return Unchanged[T](), fmt.Errorf("field %q: %w", key, err)
	}
	return f, nil
}
