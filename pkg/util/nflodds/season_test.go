package nflodds

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrentSeason(t *testing.T) {
	tests := []struct {
		date string
		want int
	}{
		{"2025-01-12", 2024},
		{"2025-02-09", 2024},
		{"2025-03-01", 2025},
		{"2025-09-04", 2025},
		{"2025-12-28", 2025},
	}
	for _, tt := range tests {
		now, err := time.Parse("2006-01-02", tt.date)
		require.NoError(t, err)
		assert.Equal(t, tt.want, CurrentSeason(now), tt.date)
	}
}

func TestParseSeason(t *testing.T) {
	withConfig(t, nil)

	season, err := ParseSeason("2023")
	require.NoError(t, err)
	assert.Equal(t, 2023, season)

	season, err = ParseSeason(" 2022/2023\n")
	require.NoError(t, err)
	assert.Equal(t, 2022, season)

	season, err = ParseSeason("2021-22")
	require.NoError(t, err)
	assert.Equal(t, 2021, season)

	for _, bad := range []string{"", "abc", "25", "1990", "3000", "2023/"} {
		_, err := ParseSeason(bad)
		assert.Error(t, err, bad)
	}
}

func TestSeasonOrDefaultFallsBack(t *testing.T) {
	withConfig(t, func(c *NflOddsConfig) { c.FallbackSeason = 2023 })
	assert.Equal(t, 2023, SeasonOrDefault("next year"))
	assert.Equal(t, 2020, SeasonOrDefault("2020"))
}

func TestPromptSeason(t *testing.T) {
	withConfig(t, nil)

	var out bytes.Buffer
	assert.Equal(t, 2022, PromptSeason(strings.NewReader("2022\n"), &out))
	assert.Equal(t, "Enter season year (e.g., 2025): ", out.String())

	out.Reset()
	assert.Equal(t, 2024, PromptSeason(strings.NewReader("twenty\n"), &out))

	out.Reset()
	assert.Equal(t, 2024, PromptSeason(strings.NewReader(""), &out))

	out.Reset()
	assert.Equal(t, 2021, PromptSeason(strings.NewReader("2021"), &out), "no trailing newline")
}
