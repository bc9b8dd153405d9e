package nflodds

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func play(game, pos, def string, epa float64) *Play {
	return &Play{GameID: game, PosTeam: pos, DefTeam: def, Week: 1, EPA: epa, HasEPA: true}
}

func TestAggregateNetEPA(t *testing.T) {
	pbp := &PlayByPlay{Season: 2024, Plays: []*Play{
		play("G1", "KC", "BAL", 0.5),
		play("G1", "KC", "BAL", 0.1),
		play("G1", "BAL", "KC", -0.2),
		play("G1", "", "KC", 1.0), // kickoff: defence only
		{GameID: "G1", PosTeam: "BAL", DefTeam: "KC", HasEPA: false, EPA: 9},
	}}

	rows := AggregateNetEPA(pbp)
	require.Len(t, rows, 2)

	bal, kc := rows[0], rows[1]
	assert.Equal(t, "BAL", bal.Team)
	assert.Equal(t, "KC", kc.Team)

	assert.Equal(t, 2, kc.OffPlays)
	assert.InDelta(t, 0.3, kc.OffEPAPerPlay, 1e-9)
	assert.Equal(t, 2, kc.DefPlays)
	assert.InDelta(t, -0.4, kc.DefEPAPerPlay, 1e-9)
	assert.InDelta(t, -0.1, kc.NetEPAPerPlay, 1e-9)
	assert.True(t, kc.HasDefence)

	assert.InDelta(t, -0.2, bal.OffEPAPerPlay, 1e-9)
	assert.InDelta(t, -0.3, bal.DefEPAPerPlay, 1e-9)
	assert.InDelta(t, -0.5, bal.NetEPAPerPlay, 1e-9)
	assert.Equal(t, 2024, bal.Season)
	assert.Equal(t, 1, bal.Week)
}

func TestAggregateNetEPALeftJoin(t *testing.T) {
	pbp := &PlayByPlay{Plays: []*Play{
		play("G2", "NYJ", "", 0.4),
		play("G2", "", "BUF", 0.3),
	}}

	rows := AggregateNetEPA(pbp)
	require.Len(t, rows, 1, "a team seen only on defence is dropped")
	assert.Equal(t, "NYJ", rows[0].Team)
	assert.False(t, rows[0].HasDefence)
	assert.Equal(t, 0.0, rows[0].NetEPAPerPlay)
	assert.Equal(t, 0.0, rows[0].DefEPAPerPlay)
}

func TestAggregateNetEPASortsByGameThenTeam(t *testing.T) {
	pbp := &PlayByPlay{Plays: []*Play{
		play("G2", "SF", "LA", 0.1),
		play("G1", "MIA", "NE", 0.1),
		play("G1", "NE", "MIA", 0.1),
		play("G2", "LA", "SF", 0.1),
	}}
	var keys []string
	for _, r := range AggregateNetEPA(pbp) {
		keys = append(keys, r.GameID+"/"+r.Team)
	}
	assert.Equal(t, []string{"G1/MIA", "G1/NE", "G2/LA", "G2/SF"}, keys)
}

func TestAggregateNetEPAEmpty(t *testing.T) {
	assert.Empty(t, AggregateNetEPA(nil))
	assert.Empty(t, AggregateNetEPA(CalculateEPA(&PlayByPlay{})))
}
