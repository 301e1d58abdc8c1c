package types

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type patchPayload struct {
	CategoryID  NullableUUID   `json:"category_id"`
	Description NullableString `json:"description"`
}

func TestNullableDistinguishesAbsentNullAndValue(t *testing.T) {
	id := uuid.MustParse("00000000-0000-0000-0000-000000000001")

	var got patchPayload
	require.NoError(t, json.Unmarshal([]byte(`{"category_id":"`+id.String()+`","description":null}`), &got))
	assert.True(t, got.CategoryID.Set())
	assert.Equal(t, id, *got.CategoryID.Value)
	assert.True(t, got.Description.Cleared())
	assert.False(t, got.Description.Set())

	got = patchPayload{}
	require.NoError(t, json.Unmarshal([]byte(`{}`), &got))
	assert.False(t, got.CategoryID.Valid)
	assert.False(t, got.Description.Valid)
	assert.False(t, got.Description.Cleared())
}

func TestNullableRejectsWrongType(t *testing.T) {
	var got patchPayload
	err := json.Unmarshal([]byte(`{"category_id":"not-a-uuid"}`), &got)
	assert.Error(t, err)
	assert.False(t, got.CategoryID.Valid)

	err = json.Unmarshal([]byte(`{"description":12}`), &got)
	assert.Error(t, err)
}
