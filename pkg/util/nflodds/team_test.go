package nflodds

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveTeam(t *testing.T) {
	tests := map[string]string{
		"KC":                      "KC",
		"kan":                     "KC",
		"chiefs":                  "KC",
		"Kansas City Chiefs":      "KC",
		"the packers defence":     "GB",
		"Chefs":                   "KC",
		"Green Bay Packers":       "GB",
		"los angeles rams":        "LA",
		"  New England Patriots ": "NE",
	}
	for query, want := range tests {
		team, err := ResolveTeam(query)
		require.NoError(t, err, query)
		assert.Equal(t, want, team.Abbr, query)
	}

	_, err := ResolveTeam("xyzzy")
	assert.Error(t, err)
	_, err = ResolveTeam("  ")
	assert.Error(t, err)
}

func TestNormaliseTeam(t *testing.T) {
	assert.Equal(t, "LA", NormaliseTeam("lar"))
	assert.Equal(t, "WAS", NormaliseTeam("WSH"))
	assert.Equal(t, "KC", NormaliseTeam(" kc "))
	assert.Equal(t, "OAK", NormaliseTeam("OAK"), "historical codes are kept")
}

func TestTeams(t *testing.T) {
	all := GetTeams()
	require.Len(t, all, 32)
	assert.Equal(t, "ARI", all[0].Abbr)

	team, ok := LookupTeamByPfrCode("KAN")
	require.True(t, ok)
	assert.Equal(t, "Kansas City Chiefs", team.Name())

	_, ok = LookupTeam("XXX")
	assert.False(t, ok)
}
