package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevenshteinDistance(t *testing.T) {
	assert.Equal(t, 0, LevenshteinDistance("chiefs", "chiefs"))
	assert.Equal(t, 3, LevenshteinDistance("kitten", "sitting"))
	assert.Equal(t, 4, LevenshteinDistance("", "bills"))
	assert.Equal(t, 4, LevenshteinDistance("jets", ""))
}

func TestParseFloatField(t *testing.T) {
	v, ok, err := ParseFloatField(" -0.25 ")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.InDelta(t, -0.25, v, 1e-9)

	_, ok, err = ParseFloatField("NA")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = ParseFloatField("abc")
	assert.Error(t, err)
}

func TestGetAsInteger(t *testing.T) {
	v, err := GetAsInteger(float64(2025))
	require.NoError(t, err)
	assert.Equal(t, 2025, v)

	v, err = GetAsInteger(" 7 ")
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	_, err = GetAsInteger(7.5)
	assert.Error(t, err)
	_, err = GetAsInteger(nil)
	assert.Error(t, err)
	_, err = GetAsInteger([]int{1})
	assert.Error(t, err)
}

func TestGetAsString(t *testing.T) {
	s, err := GetAsString(12)
	require.NoError(t, err)
	assert.Equal(t, "12", s)

	s, err = GetAsString(0.5)
	require.NoError(t, err)
	assert.Equal(t, "0.5", s)

	_, err = GetAsString(nil)
	assert.Error(t, err)
}
