package nflodds

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluatePredictionAccuracy(t *testing.T) {
	game := &Game{GameID: "G", HomeTeam: "KC", AwayTeam: "BAL", HomeScore: 24, AwayScore: 20}
	pred := &Prediction{GameID: "G", Margin: 3, Total: 45,
		MarketSpread: 2.5, SpreadPick: "KC", MarketTotal: 43.5, TotalPick: PickOver}

	acc := EvaluatePredictionAccuracy(pred, game)
	require.NotNil(t, acc)
	assert.True(t, acc.WinnerCorrect)
	assert.InDelta(t, 1.0, acc.MarginError, 1e-9)
	assert.InDelta(t, 1.0, acc.TotalError, 1e-9)
	assert.Equal(t, PickWin, acc.SpreadResult)
	assert.Equal(t, PickWin, acc.TotalResult)
}

func TestEvaluatePredictionAccuracyLossesAndPushes(t *testing.T) {
	game := &Game{GameID: "G", HomeTeam: "KC", AwayTeam: "BAL", HomeScore: 24, AwayScore: 20}

	away := EvaluatePredictionAccuracy(&Prediction{Margin: -1, MarketSpread: 3, SpreadPick: "BAL",
		MarketTotal: 44, TotalPick: PickUnder}, game)
	assert.False(t, away.WinnerCorrect)
	assert.Equal(t, PickLoss, away.SpreadResult, "home won by 4 against a 3 point line")
	assert.Equal(t, PickPush, away.TotalResult)

	none := EvaluatePredictionAccuracy(&Prediction{Margin: 2, SpreadPick: BetNone, TotalPick: BetNone}, game)
	assert.Equal(t, PickNoPick, none.SpreadResult)
	assert.Equal(t, PickNoPick, none.TotalResult)
}

func TestEvaluatePredictionAccuracySkipsUnplayed(t *testing.T) {
	assert.Nil(t, EvaluatePredictionAccuracy(&Prediction{}, NewGame()))
	assert.Nil(t, EvaluatePredictionAccuracy(nil, &Game{}))
	assert.Nil(t, EvaluatePredictionAccuracy(&Prediction{}, nil))
}

func TestEvaluateAllPredictions(t *testing.T) {
	games := []*Game{
		{GameID: "A", HomeTeam: "KC", AwayTeam: "BAL", HomeScore: 24, AwayScore: 20},
		{GameID: "B", HomeTeam: "GB", AwayTeam: "CHI", HomeScore: 10, AwayScore: 17},
		{GameID: "C", HomeTeam: "SF", AwayTeam: "LA", HomeScore: -1, AwayScore: -1},
	}
	preds := []*Prediction{
		{GameID: "A", Margin: 3, Total: 45, MarketSpread: 2.5, SpreadPick: "KC", MarketTotal: 43, TotalPick: PickOver},
		{GameID: "B", Margin: 2, Total: 30, MarketSpread: 1, SpreadPick: "GB", MarketTotal: 27, TotalPick: PickUnder},
		{GameID: "C", Margin: 1, Total: 40},
		{GameID: "missing"},
	}

	accs, agg := EvaluateAllPredictions(preds, games)
	require.Len(t, accs, 2)
	assert.Equal(t, 2, agg.Games)
	assert.InDelta(t, 50.0, agg.WinnerAccuracy, 1e-9)
	assert.InDelta(t, 5.0, agg.MeanMarginError, 1e-9) // (1 + 9) / 2
	assert.InDelta(t, 2.0, agg.MeanTotalError, 1e-9)  // (1 + 3) / 2
	assert.Equal(t, 1, agg.SpreadWins)
	assert.Equal(t, 1, agg.SpreadLosses)
	assert.InDelta(t, 50.0, agg.SpreadWinRate, 1e-9)
	assert.Equal(t, 1, agg.TotalWins, "44 beats an over line of 43")
	assert.Equal(t, 1, agg.TotalPushes, "27 exactly pushes the under")
	assert.InDelta(t, 100.0, agg.TotalWinRate, 1e-9)
}

func TestSummariseAccuracyEmpty(t *testing.T) {
	agg := SummariseAccuracy(nil)
	assert.Equal(t, 0, agg.Games)
	assert.Equal(t, 0.0, agg.WinnerAccuracy)
}
