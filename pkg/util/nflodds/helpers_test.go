package nflodds

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// withConfig installs a default config changed by mutate for the duration of the test
func withConfig(t *testing.T, mutate func(c *NflOddsConfig)) *NflOddsConfig {
	t.Helper()
	old := Config
	c := DefaultConfig()
	if mutate != nil {
		mutate(c)
	}
	UpdateConfig(c)
	t.Cleanup(func() { UpdateConfig(old) })
	return c
}

// initTestDB gives the test a fresh in-memory database
func initTestDB(t *testing.T) {
	t.Helper()
	require.NoError(t, InitDatabase(":memory:"))
	t.Cleanup(func() { CloseDatabase() })
}

func ratedTeam(team string, off, def float64) *TeamRating {
	return &TeamRating{Team: team, Games: 1, OffEPAPerPlay: off, DefEPAPerPlay: def, NetEPAPerPlay: off + def}
}
