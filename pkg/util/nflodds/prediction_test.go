package nflodds

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func predictionConfig(t *testing.T) {
	withConfig(t, func(c *NflOddsConfig) {
		c.LeagueAveragePoints = 22
		c.PlaysPerGame = 62
		c.HomeFieldAdvantage = 2
	})
}

func TestPredictGame(t *testing.T) {
	predictionConfig(t)
	current := map[string]*TeamRating{
		"KC":  ratedTeam("KC", 0.1, 0.05),
		"BAL": ratedTeam("BAL", 0.0, 0.0),
	}
	game := &Game{GameID: "2025_01_BAL_KC", Season: 2025, Week: 1, HomeTeam: "KC", AwayTeam: "BAL",
		SpreadLine: 7, HasSpreadLine: true, TotalLine: 44, HasTotalLine: true}

	p := PredictGame(game, current, nil)
	assert.InDelta(t, 29.2, p.HomePoints, 1e-9)
	assert.InDelta(t, 17.9, p.AwayPoints, 1e-9)
	assert.InDelta(t, 11.3, p.Margin, 1e-9)
	assert.InDelta(t, -11.3, p.Spread, 1e-9)
	assert.InDelta(t, 47.1, p.Total, 1e-9)
	assert.Equal(t, RatingSourceSeason, p.RatingSource)

	assert.True(t, p.HasMarketSpread)
	assert.InDelta(t, 4.3, p.SpreadEdge, 1e-9)
	assert.Equal(t, "KC", p.SpreadPick)
	assert.InDelta(t, 3.1, p.TotalEdge, 1e-9)
	assert.Equal(t, PickOver, p.TotalPick)
}

func TestPredictGamePicksAwayAndPasses(t *testing.T) {
	predictionConfig(t)
	current := map[string]*TeamRating{
		"KC":  ratedTeam("KC", 0.1, 0.05),
		"BAL": ratedTeam("BAL", 0.0, 0.0),
	}
	game := &Game{GameID: "G", HomeTeam: "KC", AwayTeam: "BAL",
		SpreadLine: 14, HasSpreadLine: true, TotalLine: 46, HasTotalLine: true}

	p := PredictGame(game, current, nil)
	assert.InDelta(t, -2.7, p.SpreadEdge, 1e-9)
	assert.Equal(t, "BAL", p.SpreadPick)
	assert.InDelta(t, 1.1, p.TotalEdge, 1e-9)
	assert.Equal(t, BetNone, p.TotalPick)
}

func TestPredictGameWithoutMarket(t *testing.T) {
	predictionConfig(t)
	p := PredictGame(&Game{GameID: "G", HomeTeam: "KC", AwayTeam: "BAL"}, nil, nil)

	assert.False(t, p.HasMarketSpread)
	assert.False(t, p.HasMarketTotal)
	assert.Equal(t, BetNone, p.SpreadPick)
	assert.Equal(t, BetNone, p.TotalPick)
	assert.Equal(t, RatingSourceNone, p.RatingSource)
	assert.InDelta(t, 23.0, p.HomePoints, 1e-9, "unrated teams score the league average")
	assert.InDelta(t, 21.0, p.AwayPoints, 1e-9)
	assert.InDelta(t, 2.0, p.Margin, 1e-9)
}

func TestPredictGameUsesPriorRatings(t *testing.T) {
	predictionConfig(t)
	current := map[string]*TeamRating{"KC": ratedTeam("KC", 0.1, 0.05)}
	prior := map[string]*TeamRating{"BAL": ratedTeam("BAL", 0.1, 0.0), "KC": ratedTeam("KC", -1, -1)}

	p := PredictGame(&Game{GameID: "G", HomeTeam: "KC", AwayTeam: "BAL"}, current, prior)
	assert.Equal(t, RatingSourcePrior, p.RatingSource)
	// away = 22 + 62*(0.1 - 0.05) - 1
	assert.InDelta(t, 24.1, p.AwayPoints, 1e-9)
}

func TestPredictGameFloorsPoints(t *testing.T) {
	predictionConfig(t)
	current := map[string]*TeamRating{
		"KC":  ratedTeam("KC", -1.0, 0.0),
		"BAL": ratedTeam("BAL", 0.0, 0.5),
	}
	p := PredictGame(&Game{GameID: "G", HomeTeam: "KC", AwayTeam: "BAL"}, current, nil)
	assert.Equal(t, 0.0, p.HomePoints)
	assert.GreaterOrEqual(t, p.AwayPoints, 0.0)
	assert.InDelta(t, -p.AwayPoints, p.Margin, 1e-9)
}

func TestPredictWeek(t *testing.T) {
	predictionConfig(t)
	preds := PredictWeek(testSeason(), 2, nil, nil)
	require.Len(t, preds, 2)
	assert.Equal(t, "GB", preds[0].HomeTeam, "kickoff order")
	assert.Equal(t, "PHI", preds[1].HomeTeam)
	for _, p := range preds {
		assert.Equal(t, 2, p.Week)
	}
}
