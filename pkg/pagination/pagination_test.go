package pagination

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, NormalizeLimit(0))
	assert.Equal(t, DefaultLimit, NormalizeLimit(-4))
	assert.Equal(t, 10, NormalizeLimit(10))
	assert.Equal(t, MaxLimit, NormalizeLimit(MaxLimit+50))
	assert.Equal(t, 11, LimitWithBuffer(10))
}

func TestCursorRoundTripIsURLSafe(t *testing.T) {
	want := Cursor{
		CreatedAt: time.Date(2025, 3, 1, 12, 30, 0, 123, time.FixedZone("UZT", 5*3600)),
		ID:        uuid.New(),
	}

	encoded := EncodeCursor(want)
	assert.NotContains(t, encoded, "+")
	assert.NotContains(t, encoded, "/")
	assert.NotContains(t, encoded, "=")

	got, err := ParseCursor(encoded)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, want.ID, got.ID)
}

func TestParseCursorErrors(t *testing.T) {
	got, err := ParseCursor("  ")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = ParseCursor("%%%")
	assert.ErrorIs(t, err, ErrInvalidCursor)

	_, err = ParseCursor(base64.RawURLEncoding.EncodeToString([]byte(`{"t":"2025-01-01T00:00:00Z"}`)))
	assert.ErrorIs(t, err, ErrInvalidCursor)
}

func TestTrim(t *testing.T) {
	type row struct {
		at time.Time
		id uuid.UUID
	}
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := []row{{base.Add(3), uuid.New()}, {base.Add(2), uuid.New()}, {base.Add(1), uuid.New()}}
	position := func(r row) Cursor { return Cursor{CreatedAt: r.at, ID: r.id} }

	page, next := Trim(rows, 2, position)
	require.Len(t, page, 2)
	require.NotEmpty(t, next)
	cursor, err := ParseCursor(next)
	require.NoError(t, err)
	assert.Equal(t, rows[1].id, cursor.ID)

	page, next = Trim(rows, 5, position)
	assert.Len(t, page, 3)
	assert.Empty(t, next)
}
