package nflodds

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pfrWeekPage = `<html><body><div class="game_summaries">
<div class="game_summary expanded nohover">
<table class="teams"><tbody>
<tr class="date"><td colspan="3">Sep 5, 2024</td></tr>
<tr class="loser"><td><a href="/teams/rav/2024.htm">Baltimore Ravens</a></td><td class="right">20</td><td class="right gamelink"><a href="/boxscores/202409050kan.htm">Final</a></td></tr>
<tr class="winner"><td><a href="/teams/kan/2024.htm">Kansas City Chiefs</a></td><td class="right">27</td><td class="right">&nbsp;</td></tr>
</tbody></table>
</div>
<div class="game_summary nohover">
<table class="teams"><tbody>
<tr class="date"><td colspan="3">Sep 8, 2024</td></tr>
<tr><td><a href="/teams/gnb/2024.htm">Green Bay Packers</a></td><td class="right"></td><td></td></tr>
<tr><td><a href="/teams/phi/2024.htm">Philadelphia Eagles</a></td><td class="right"></td><td></td></tr>
</tbody></table>
</div>
<div class="game_summary nohover"><table class="teams"><tbody>
<tr class="date"><td colspan="3">Sep 9, 2024</td></tr>
</tbody></table></div>
</div></body></html>`

const pfrSeasonPage = `<html><body><table id="games"><thead><tr><th>Week</th></tr></thead><tbody>
<tr><th data-stat="week_num">1</th><td data-stat="game_date" csk="2024-09-05">2024-09-05</td><td data-stat="gametime">8:20PM</td><td data-stat="winner"><a href="/teams/kan/2024.htm">Kansas City Chiefs</a></td><td data-stat="game_location"></td><td data-stat="loser"><a href="/teams/rav/2024.htm">Baltimore Ravens</a></td><td data-stat="pts_win">27</td><td data-stat="pts_lose">20</td></tr>
<tr><th data-stat="week_num">1</th><td data-stat="game_date">2024-09-06</td><td data-stat="gametime">8:15PM</td><td data-stat="winner"><a href="/teams/phi/2024.htm">Philadelphia Eagles</a></td><td data-stat="game_location">N</td><td data-stat="loser"><a href="/teams/gnb/2024.htm">Green Bay Packers</a></td><td data-stat="pts_win">34</td><td data-stat="pts_lose">29</td></tr>
<tr class="thead"><th data-stat="week_num">Week</th><td data-stat="winner">Winner/tie</td></tr>
<tr><th data-stat="week_num">2</th><td data-stat="game_date">2024-09-15</td><td data-stat="gametime">1:00PM</td><td data-stat="winner"><a href="/teams/kan/2024.htm">Kansas City Chiefs</a></td><td data-stat="game_location">@</td><td data-stat="loser"><a href="/teams/cin/2024.htm">Cincinnati Bengals</a></td><td data-stat="pts_win"></td><td data-stat="pts_lose"></td></tr>
<tr><th data-stat="week_num">WildCard</th><td data-stat="game_date">2025-01-11</td><td data-stat="gametime">8:00PM</td><td data-stat="winner"><a href="/teams/rav/2024.htm">Baltimore Ravens</a></td><td data-stat="game_location"></td><td data-stat="loser"><a href="/teams/pit/2024.htm">Pittsburgh Steelers</a></td><td data-stat="pts_win">28</td><td data-stat="pts_lose">14</td></tr>
</tbody></table></body></html>`

func TestParsePfrWeekPage(t *testing.T) {
	games, err := ParsePfrWeekPage(strings.NewReader(pfrWeekPage), 2024, 1)
	require.NoError(t, err)
	require.Len(t, games, 2)

	played := games[0]
	assert.Equal(t, "2024_01_BAL_KC", played.GameID)
	assert.Equal(t, "BAL", played.AwayTeam)
	assert.Equal(t, "KC", played.HomeTeam)
	assert.Equal(t, 20, played.AwayScore)
	assert.Equal(t, 27, played.HomeScore)
	assert.Equal(t, "2024-09-05", played.Gameday)
	assert.Equal(t, "pfr", played.Source)

	unplayed := games[1]
	assert.Equal(t, "GB", unplayed.AwayTeam)
	assert.Equal(t, "PHI", unplayed.HomeTeam)
	assert.False(t, unplayed.IsPlayed())
}

func TestParsePfrSeasonPage(t *testing.T) {
	games, err := ParsePfrSeasonPage(strings.NewReader(pfrSeasonPage), 2024)
	require.NoError(t, err)
	require.Len(t, games, 4)

	first := games[0]
	assert.Equal(t, "KC", first.HomeTeam)
	assert.Equal(t, 27, first.HomeScore)
	assert.Equal(t, 20, first.AwayScore)
	assert.Equal(t, "2024-09-05", first.Gameday)
	assert.Equal(t, "20:20", first.Gametime)

	assert.Equal(t, "PHI", games[1].HomeTeam, "neutral site lists the winner as home")

	away := games[2]
	assert.Equal(t, "2024_02_KC_CIN", away.GameID)
	assert.Equal(t, "KC", away.AwayTeam)
	assert.Equal(t, "CIN", away.HomeTeam)
	assert.False(t, away.IsPlayed())

	playoff := games[3]
	assert.Equal(t, 3, playoff.Week)
	assert.Equal(t, GameTypeWildcard, playoff.GameType)
	assert.Equal(t, "2024_03_PIT_BAL", playoff.GameID)
	assert.Equal(t, 28, playoff.HomeScore)
}

func TestTeamPageURL(t *testing.T) {
	d := &Datasource{PfrBaseURL: "https://www.pro-football-reference.com/"}
	team, ok := LookupTeam("KC")
	require.True(t, ok)
	assert.Equal(t, "https://www.pro-football-reference.com/teams/kan/2024.htm", d.TeamPageURL(team, 2024))
}
