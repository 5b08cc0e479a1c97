package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	page, err := Parse("", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultLimit, page.Limit)
	assert.Equal(t, 0, page.Offset)
}

func TestParseClampsLimit(t *testing.T) {
	page, err := Parse("5000", "10")
	require.NoError(t, err)
	assert.Equal(t, MaxLimit, page.Limit)
	assert.Equal(t, 10, page.Offset)
}

func TestParseRejectsBadInput(t *testing.T) {
	_, err := Parse("-1", "")
	assert.Error(t, err)

	_, err = Parse("abc", "")
	assert.Error(t, err)

	_, err = Parse("", "-5")
	assert.Error(t, err)
}

func TestNewMeta(t *testing.T) {
	meta := NewMeta(Page{Limit: 25, Offset: 50}, 120)
	assert.Equal(t, 25, meta.Limit)
	assert.Equal(t, 50, meta.Offset)
	assert.Equal(t, int64(120), meta.Total)
}
