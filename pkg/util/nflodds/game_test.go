package nflodds

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scheduleCSV = "\ufeffgame_id,season,game_type,week,gameday,weekday,gametime,away_team,away_score,home_team,home_score,spread_line,total_line\n" +
	"2023_01_DET_KC,2023,REG,1,2023-09-07,Thursday,20:20,DET,21,KC,20,4.5,53.0\n" +
	"2024_01_BAL_KC,2024,REG,1,2024-09-05,Thursday,20:20,BAL,20,KC,27,3.0,46.0\n" +
	"2024_02_CIN_KC,2024,REG,2,2024-09-15,Sunday,16:25,CIN,NA,KC,NA,NA,47.5\n" +
	"2024_03_KC_ATL,2024,REG,x,2024-09-22,Sunday,20:20,KC,,ATL,,,\n" +
	"2024_04_LAC_KC,2024,REG,4\n" +
	"2024_19_PIT_BAL,2024,WC,19,2025-01-11,Saturday,20:00,PIT,14,BAL,28,-9.5,43.5\n"

func TestParseScheduleCSV(t *testing.T) {
	games, err := ParseScheduleCSV(strings.NewReader(scheduleCSV), 2024)
	require.NoError(t, err)
	require.Len(t, games, 3, "other seasons, bad weeks and short rows are skipped")

	played := games[0]
	assert.Equal(t, "2024_01_BAL_KC", played.GameID)
	assert.Equal(t, "KC", played.HomeTeam)
	assert.Equal(t, "BAL", played.AwayTeam)
	assert.Equal(t, 27, played.HomeScore)
	assert.Equal(t, 20, played.AwayScore)
	assert.True(t, played.IsPlayed())
	assert.Equal(t, 7, played.Margin())
	assert.Equal(t, 47, played.Total())
	assert.True(t, played.HasSpreadLine)
	assert.Equal(t, 3.0, played.SpreadLine)
	assert.Equal(t, "nflverse", played.Source)

	unplayed := games[1]
	assert.False(t, unplayed.IsPlayed())
	assert.Equal(t, -1, unplayed.HomeScore)
	assert.False(t, unplayed.HasSpreadLine)
	assert.True(t, unplayed.HasTotalLine)
	assert.Equal(t, 47.5, unplayed.TotalLine)

	playoff := games[2]
	assert.True(t, playoff.IsPostseason())
	assert.Equal(t, -9.5, playoff.SpreadLine)
}

func TestParseScheduleCSVAllSeasons(t *testing.T) {
	games, err := ParseScheduleCSV(strings.NewReader(scheduleCSV), 0)
	require.NoError(t, err)
	assert.Len(t, games, 4)
}

func TestParseScheduleCSVMissingColumn(t *testing.T) {
	_, err := ParseScheduleCSV(strings.NewReader("season,week,home_team\n2024,1,KC\n"), 2024)
	assert.Error(t, err)

	games, err := ParseScheduleCSV(strings.NewReader(""), 2024)
	require.NoError(t, err)
	assert.Empty(t, games)
}

func TestParseScheduleRowNormalisesTeams(t *testing.T) {
	g, err := ParseScheduleRow(map[string]string{
		"season": "2016", "week": "3", "home_team": "lar", "away_team": "SFO",
	})
	require.NoError(t, err)
	assert.Equal(t, "LA", g.HomeTeam)
	assert.Equal(t, "SF", g.AwayTeam)
	assert.Equal(t, "2016_03_SF_LA", g.GameID)
	assert.False(t, g.IsPlayed())

	_, err = ParseScheduleRow(map[string]string{"season": "2016", "week": "3", "home_score": "x", "away_score": "1"})
	assert.Error(t, err)
}

func TestGameKickoffUsesScheduleTimezone(t *testing.T) {
	withConfig(t, nil)

	g := &Game{GameID: "G", Gameday: "2024-09-05", Gametime: "20:20"}
	kickoff, err := g.Kickoff()
	require.NoError(t, err)
	assert.Equal(t, "2024-09-06T00:20:00Z", kickoff.UTC().Format("2006-01-02T15:04:05Z"))

	g.Gametime = ""
	kickoff, err = g.Kickoff()
	require.NoError(t, err)
	assert.Equal(t, 0, kickoff.Hour())

	g.Gameday = ""
	_, err = g.Kickoff()
	assert.Error(t, err)
}

func TestGenerateGameID(t *testing.T) {
	assert.Equal(t, "2024_01_BAL_KC", GenerateGameID(2024, 1, "BAL", "KC"))
	assert.Equal(t, "2024_18_DEN_KC", GenerateGameID(2024, 18, "DEN", "KC"))
}
