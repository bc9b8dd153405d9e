package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/richard-senior/nflodds/pkg/util/nflodds"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const gamesCSV = "game_id,season,game_type,week,gameday,gametime,away_team,away_score,home_team,home_score,spread_line,total_line\n" +
	"2024_01_BAL_KC,2024,REG,1,2024-09-05,20:20,BAL,20,KC,27,3.0,46.0\n" +
	"2024_02_KC_CIN,2024,REG,2,2024-09-15,16:25,KC,NA,CIN,NA,-5.5,47.5\n" +
	"2024_02_BAL_LV,2024,REG,2,2024-09-15,16:05,BAL,NA,LV,NA,NA,NA\n"

const playsCSV = "game_id,season,week,posteam,defteam,epa\n" +
	"2024_01_BAL_KC,2024,1,KC,BAL,0.5\n" +
	"2024_01_BAL_KC,2024,1,KC,BAL,0.1\n" +
	"2024_01_BAL_KC,2024,1,BAL,KC,-0.2\n"

const teamPage = `<html><head><title>2024 Kansas City Chiefs</title></head><body>
<h1>2024 Kansas City Chiefs Statistics</h1>
<p>Record: 15-2, <a href="/years/2024/">1st in AFC West</a></p>
</body></html>`

func newTestTools(t *testing.T) *NflTools {
	t.Helper()
	routes := map[string]string{
		"/games.csv":                 gamesCSV,
		"/pbp/play_by_play_2024.csv": playsCSV,
		"/teams/kan/2024.htm":        teamPage,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	now, err := time.Parse(time.RFC3339, "2024-09-10T12:00:00Z")
	require.NoError(t, err)
	return NewNflTools(&nflodds.Datasource{
		PlayByPlayURL: srv.URL + "/pbp/play_by_play_%d.csv",
		ScheduleURL:   srv.URL + "/games.csv",
		PfrBaseURL:    srv.URL,
		Now:           func() time.Time { return now },
	})
}

func resultText(t *testing.T, args map[string]any, h Handler) string {
	t.Helper()
	res, err := h(context.Background(), args)
	require.NoError(t, err)
	require.Len(t, res.Content, 1)
	assert.Equal(t, "text", res.Content[0].Type)
	return res.Content[0].Text
}

func TestHandleCurrentWeekDefaultsSeason(t *testing.T) {
	n := newTestTools(t)
	text := resultText(t, map[string]any{}, n.HandleCurrentWeek)
	assert.Contains(t, text, `"season": 2024`)
	assert.Contains(t, text, `"week": 2`)
	assert.Contains(t, text, "2024_02_KC_CIN")
	assert.NotContains(t, text, "2024_01_BAL_KC")
}

func TestHandleRecommendations(t *testing.T) {
	n := newTestTools(t)
	text := resultText(t, map[string]any{"season": float64(2024), "limit": "1"}, n.HandleRecommendations)
	assert.Contains(t, text, "Betting Recommendations (Net EPA):")
	assert.Contains(t, text, " Avoid ")
	assert.NotContains(t, text, " Bet ", "limit keeps only the first row")
}

func TestHandleRecommendationsRejectsBadLimit(t *testing.T) {
	n := newTestTools(t)
	_, err := n.HandleRecommendations(context.Background(), map[string]any{"limit": 2.5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "limit")

	_, err = n.HandleRecommendations(context.Background(), map[string]any{"limit": float64(-1)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must not be negative")
}

func TestHandleWeekPredictionsFiltersTeam(t *testing.T) {
	n := newTestTools(t)
	require.NoError(t, nflodds.InitDatabase(":memory:"))
	t.Cleanup(func() { nflodds.CloseDatabase() })

	text := resultText(t, map[string]any{"season": "2024", "week": float64(2), "team": "Chiefs"}, n.HandleWeekPredictions)
	assert.Contains(t, text, "Week 2 predictions:")
	assert.Contains(t, text, "KC @ CIN")
	assert.NotContains(t, text, "BAL @ LV")
}

func TestHandleTeamPage(t *testing.T) {
	n := newTestTools(t)
	text := resultText(t, map[string]any{"team": "kansas city chiefs", "season": 2024}, n.HandleTeamPage)
	assert.True(t, strings.HasPrefix(text, "# Kansas City Chiefs 2024"))
	assert.Contains(t, text, "2024 Kansas City Chiefs Statistics")
	assert.Contains(t, text, "/years/2024/")
}

func TestHandleTeamPageNeedsTeam(t *testing.T) {
	n := newTestTools(t)
	_, err := n.HandleTeamPage(context.Background(), map[string]any{})
	assert.Error(t, err)
}

func TestFilterByTeam(t *testing.T) {
	preds := []*nflodds.Prediction{
		{GameID: "a", HomeTeam: "KC", AwayTeam: "BAL"},
		{GameID: "b", HomeTeam: "LV", AwayTeam: "DEN"},
	}
	got, err := FilterByTeam(preds, "BAL")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].GameID)

	got, err = FilterByTeam(preds, "")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestHTMLToMarkdownTruncates(t *testing.T) {
	md, err := HTMLToMarkdown("<p>"+strings.Repeat("x", maxMarkdownLength+10)+"</p>", "example.com/page")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(md, "(content truncated due to size)"))
}

func TestExtractDomain(t *testing.T) {
	d, err := extractDomain("www.pro-football-reference.com/teams/kan/2024.htm")
	require.NoError(t, err)
	assert.Equal(t, "https://www.pro-football-reference.com", d)
}
