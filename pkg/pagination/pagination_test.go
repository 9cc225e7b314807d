package pagination

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	ID        uuid.UUID
	CreatedAt time.Time
}

func makeRows(n int) []row {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rows := make([]row, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, row{
			ID:        uuid.New(),
			CreatedAt: base.Add(-time.Duration(i) * time.Minute),
		})
	}
	return rows
}

func rowCursor(r *row) Cursor {
	return Cursor{CreatedAt: r.CreatedAt, ID: r.ID}
}

func TestNewPageTrimsBufferRow(t *testing.T) {
	rows := makeRows(3)

	page := NewPage(rows, 2, rowCursor)

	require.Len(t, page.Items, 2)
	require.NotEmpty(t, page.NextCursor)

	cursor, err := ParseCursor(page.NextCursor)
	require.NoError(t, err)
	require.NotNil(t, cursor)
	assert.Equal(t, rows[1].ID, cursor.ID)
	assert.True(t, cursor.CreatedAt.Equal(rows[1].CreatedAt))
}

func TestNewPageShortPageHasNoCursor(t *testing.T) {
	rows := makeRows(2)

	page := NewPage(rows, 2, rowCursor)

	assert.Len(t, page.Items, 2)
	assert.Empty(t, page.NextCursor)
}

func TestNewPageAppliesDefaultLimit(t *testing.T) {
	rows := makeRows(DefaultLimit + 1)

	page := NewPage(rows, 0, rowCursor)

	assert.Len(t, page.Items, DefaultLimit)
	assert.NotEmpty(t, page.NextCursor)
}

func TestNewPageEmptyRows(t *testing.T) {
	page := NewPage(nil, 10, rowCursor)

	assert.Empty(t, page.Items)
	assert.Empty(t, page.NextCursor)
}

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, NormalizeLimit(0))
	assert.Equal(t, DefaultLimit, NormalizeLimit(-3))
	assert.Equal(t, 10, NormalizeLimit(10))
	assert.Equal(t, MaxLimit, NormalizeLimit(MaxLimit+50))
}

func TestCursorRoundTrip(t *testing.T) {
	original := Cursor{
		CreatedAt: time.Date(2026, 4, 5, 9, 30, 0, 123456789, time.UTC),
		ID:        uuid.New(),
	}

	parsed, err := ParseCursor(EncodeCursor(original))
	require.NoError(t, err)
	require.NotNil(t, parsed)
	assert.True(t, parsed.CreatedAt.Equal(original.CreatedAt))
	assert.Equal(t, original.ID, parsed.ID)
}

func TestParseCursorBlankIsNil(t *testing.T) {
	parsed, err := ParseCursor("   ")
	require.NoError(t, err)
	assert.Nil(t, parsed)
}

func TestParseCursorRejectsGarbage(t *testing.T) {
	_, err := ParseCursor("not-base64!!")
	assert.Error(t, err)

	_, err = ParseCursor("bm8tc2VwYXJhdG9y") // "no-separator"
	assert.Error(t, err)
}
