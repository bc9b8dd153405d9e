package nflodds

import "math"

// Pick outcomes
const (
	PickWin    = "win"
	PickLoss   = "loss"
	PickPush   = "push"
	PickNoPick = "none"
)

// PredictionAccuracy compares a prediction with the final score of a played game
type PredictionAccuracy struct {
	GameID          string  `json:"gameId"`
	HomeTeam        string  `json:"homeTeam"`
	AwayTeam        string  `json:"awayTeam"`
	ActualHome      int     `json:"actualHome"`
	ActualAway      int     `json:"actualAway"`
	PredictedMargin float64 `json:"predictedMargin"`
	PredictedTotal  float64 `json:"predictedTotal"`
	MarginError     float64 `json:"marginError"`
	TotalError      float64 `json:"totalError"`
	WinnerCorrect   bool    `json:"winnerCorrect"`
	SpreadResult    string  `json:"spreadResult"`
	TotalResult     string  `json:"totalResult"`
}

// EvaluatePredictionAccuracy scores pred against game. It returns nil for unplayed games
func EvaluatePredictionAccuracy(pred *Prediction, game *Game) *PredictionAccuracy {
	if pred == nil || game == nil || !game.IsPlayed() {
		return nil
	}
	margin := float64(game.Margin())
	total := float64(game.Total())

	acc := &PredictionAccuracy{
		GameID:          game.GameID,
		HomeTeam:        game.HomeTeam,
		AwayTeam:        game.AwayTeam,
		ActualHome:      game.HomeScore,
		ActualAway:      game.AwayScore,
		PredictedMargin: pred.Margin,
		PredictedTotal:  pred.Total,
		MarginError:     math.Abs(pred.Margin - margin),
		TotalError:      math.Abs(pred.Total - total),
		WinnerCorrect:   sign(pred.Margin) == sign(margin),
		SpreadResult:    PickNoPick,
		TotalResult:     PickNoPick,
	}

	switch pred.SpreadPick {
	case game.HomeTeam:
		acc.SpreadResult = grade(margin - pred.MarketSpread)
	case game.AwayTeam:
		acc.SpreadResult = grade(pred.MarketSpread - margin)
	}
	switch pred.TotalPick {
	case PickOver:
		acc.TotalResult = grade(total - pred.MarketTotal)
	case PickUnder:
		acc.TotalResult = grade(pred.MarketTotal - total)
	}
	return acc
}

// grade turns the amount a pick beat the line by into a result
func grade(by float64) string {
	switch {
	case by > 0:
		return PickWin
	case by < 0:
		return PickLoss
	}
	return PickPush
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// AggregateAccuracy summarises many PredictionAccuracy values
type AggregateAccuracy struct {
	Games           int     `json:"games"`
	WinnerAccuracy  float64 `json:"winnerAccuracy"` // percent
	MeanMarginError float64 `json:"meanMarginError"`
	MeanTotalError  float64 `json:"meanTotalError"`
	SpreadWins      int     `json:"spreadWins"`
	SpreadLosses    int     `json:"spreadLosses"`
	SpreadPushes    int     `json:"spreadPushes"`
	SpreadWinRate   float64 `json:"spreadWinRate"` // percent of decided picks
	TotalWins       int     `json:"totalWins"`
	TotalLosses     int     `json:"totalLosses"`
	TotalPushes     int     `json:"totalPushes"`
	TotalWinRate    float64 `json:"totalWinRate"`
}

// EvaluateAllPredictions evaluates every prediction whose game has been played
func EvaluateAllPredictions(preds []*Prediction, games []*Game) ([]*PredictionAccuracy, *AggregateAccuracy) {
	byID := make(map[string]*Game, len(games))
	for _, g := range games {
		byID[g.GameID] = g
	}
	var accs []*PredictionAccuracy
	for _, p := range preds {
		if a := EvaluatePredictionAccuracy(p, byID[p.GameID]); a != nil {
			accs = append(accs, a)
		}
	}
	return accs, SummariseAccuracy(accs)
}

// SummariseAccuracy aggregates accuracy rows. Rates are zero when nothing was decided
func SummariseAccuracy(accs []*PredictionAccuracy) *AggregateAccuracy {
	agg := &AggregateAccuracy{Games: len(accs)}
	if len(accs) == 0 {
		return agg
	}
	winners := 0
	for _, a := range accs {
		if a.WinnerCorrect {
			winners++
		}
		agg.MeanMarginError += a.MarginError
		agg.MeanTotalError += a.TotalError
		tally(a.SpreadResult, &agg.SpreadWins, &agg.SpreadLosses, &agg.SpreadPushes)
		tally(a.TotalResult, &agg.TotalWins, &agg.TotalLosses, &agg.TotalPushes)
	}
	n := float64(len(accs))
	agg.WinnerAccuracy = round1(float64(winners) / n * 100)
	agg.MeanMarginError = round1(agg.MeanMarginError / n)
	agg.MeanTotalError = round1(agg.MeanTotalError / n)
	if d := agg.SpreadWins + agg.SpreadLosses; d > 0 {
		agg.SpreadWinRate = round1(float64(agg.SpreadWins) / float64(d) * 100)
	}
	if d := agg.TotalWins + agg.TotalLosses; d > 0 {
		agg.TotalWinRate = round1(float64(agg.TotalWins) / float64(d) * 100)
	}
	return agg
}

func tally(result string, wins, losses, pushes *int) {
	switch result {
	case PickWin:
		*wins++
	case PickLoss:
		*losses++
	case PickPush:
		*pushes++
	}
}
