package types

import (
	"bytes"
	"encoding/json"

	"github.com/google/uuid"
)

// Nullable tells a PATCH field that was left out (Valid false) apart from one
// sent as null (Valid true, Value nil), which clears the column.
type Nullable[T any] struct {
	Valid bool
	Value *T
}

type (
	NullableString = Nullable[string]
	NullableUUID   = Nullable[uuid.UUID]
)

func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil
	}
	n.Valid = true
	if bytes.Equal(trimmed, []byte("null")) {
		n.Value = nil
		return nil
	}
	var parsed T
	if err := json.Unmarshal(trimmed, &parsed); err != nil {
		n.Valid = false
		return err
	}
	n.Value = &parsed
	return nil
}

// Set reports whether the field was sent with a non-null value.
func (n Nullable[T]) Set() bool {
	return n.Valid && n.Value != nil
}

// Cleared reports whether the field was sent as an explicit null.
func (n Nullable[T]) Cleared() bool {
	return n.Valid && n.Value == nil
}
